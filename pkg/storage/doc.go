// Package storage keeps uploaded files on local disk or in S3-compatible
// object storage behind one [Storage] interface.
//
// [PutFile] takes the header returned by Context.FormFile, sniffs the real
// content type from the first bytes, runs the validation rules and stores
// the file under a generated name:
//
//	_, fh, err := c.FormFile("cover")
//	if err != nil {
//	    return err
//	}
//	info, err := storage.PutFile(c, store, fh,
//	    storage.WithPrefix("covers"),
//	    storage.WithValidation(
//	        storage.MaxSize(2<<20),
//	        storage.AllowedExtensions("jpg", "jpeg", "png"),
//	        storage.ImageOnly(),
//	    ),
//	)
//
// Failed rules return a *FileValidationError carrying a machine-readable
// code. [Open] picks the backend from STORAGE_DRIVER.
package storage
