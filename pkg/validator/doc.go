// Package validator checks request input against pipe-separated rule strings.
//
//	res, err := v.Validate(ctx, c.FormValues(), map[string]string{
//	    "title": "required|min:3|max:255",
//	    "email": "required|email|unique:users,email",
//	    "role":  "in:admin,editor",
//	})
//	if err != nil {
//	    return err // a rule is misconfigured
//	}
//	if res.Fails() {
//	    return c.JSON(http.StatusUnprocessableEntity, res.Errors())
//	}
//
// Built-in rules: required, email, numeric, integer, alpha, alpha_num,
// alpha_dash, url, ip, confirmed, min, max, between, in, not_in, regex,
// unique and exists. min, max and between compare values when the field also
// has numeric or integer and character counts otherwise. unique and exists
// need a database, see [WithDB]. [WithRule] adds application rules.
package validator
