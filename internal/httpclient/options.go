package httpclient

import "net/http"

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer sets the Authorization header to "Bearer <token>".
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithAcceptJSON asks the server for a JSON response.
func WithAcceptJSON() RequestOption {
	return WithHeader("Accept", "application/json")
}

// WithUserAgent sets the User-Agent header. GitHub rejects API requests
// without one.
func WithUserAgent(ua string) RequestOption {
	return WithHeader("User-Agent", ua)
}
