// Package sanitizer protects request input against stored XSS.
//
// [StripTags] turns any input into plain text and is what Context.Input
// uses. [Clean] keeps the small set of formatting elements a rich text field
// needs. Both are backed by bluemonday policies built once per process.
package sanitizer
