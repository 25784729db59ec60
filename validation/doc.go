// Package validation checks request specs and configuration before any
// network work starts.
//
// Struct checks use go-playground/validator tags, extended with http_method
// and abs_http_url. Programmatic checks collect field errors in a Validator.
// Both report an *errors.AppError with code INVALID_INPUT whose "fields"
// detail lists every rejected field.
//
//	v := validation.New()
//	v.AbsoluteURL("url", u.String()).Headers("header", req.Header)
//	if err := v.Err(); err != nil {
//	    return err
//	}
package validation
