package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests to the identity backend.
const AccessTokenHeaderName = "access_token"

// DefaultStorageNamespace prefixes every key the client writes to the local
// key/value store.
const DefaultStorageNamespace = "auth"
