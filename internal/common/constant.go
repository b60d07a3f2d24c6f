package common

// AuthHeaderName is the HTTP header that carries the access token on
// authenticated requests.
const AuthHeaderName = "Authorization"

// BearerPrefix precedes the token value inside AuthHeaderName.
const BearerPrefix = "Bearer "
