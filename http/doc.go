// Package http provides Flask-flavored request and response helpers.
//
// # Request
//
// Request wraps *http.Request with accessors mirroring Flask's request
// proxy.
//
//	req := gohttp.NewRequest(r)
//
//	// Bind a JSON / form body into a struct
//	var payload struct {
//	    Name string `json:"name"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	// Flask: request.args / request.form / request.values
//	page := req.Query("page", "1")
//	name := req.Form("name")
//	q    := req.Value("q", "")
//
//	// Route params (chi)
//	id := req.Param("id")
//
//	// Headers and auth
//	token := req.BearerToken()
//	val   := req.Header("X-Custom")
//
// # Response
//
// Response wraps http.ResponseWriter with helpers matching Flask's
// jsonify, abort, and redirect.
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)
//	res.OK(data)                  // 200
//	res.Created(data)             // 201
//	res.NoContent()               // 204
//
//	res.Abort(404)                // {"message": "Not Found"}
//	res.Abort(403, "admins only") // {"message": "admins only"}
//	res.ServerError()             // 500
//
//	res.RedirectTo("/login")      // 302
package http
