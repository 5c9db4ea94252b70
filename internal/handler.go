package internal

// Handler declares routes on a router.
//
// Example:
//
//	type PostHandler struct{ db *query.DB }
//
//	func (h *PostHandler) Routes(r pype.Router) {
//	    r.GET("/posts", h.index).Name("posts.index")
//	    r.GET("/posts/{id}", h.show).Name("posts.show")
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the request to the ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. Not calling next short-circuits the chain.
//
// Example:
//
//	func Admin(next pype.HandlerFunc) pype.HandlerFunc {
//	    return func(c pype.Context) error {
//	        if !isAdmin(c) {
//	            return c.Redirect(http.StatusFound, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error

// Controller resolves action names for "Name@action" route targets.
type Controller interface {
	Action(name string) (HandlerFunc, bool)
}

// Actions is the map form of a Controller.
//
//	pype.WithController("PostController", pype.Actions{
//	    "index": posts.Index,
//	    "show":  posts.Show,
//	})
type Actions map[string]HandlerFunc

func (a Actions) Action(name string) (HandlerFunc, bool) {
	h, ok := a[name]
	return h, ok && h != nil
}

// chain folds mws right-to-left so mws[0] runs outermost.
func chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
