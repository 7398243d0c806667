// Package registryauth implements the client side of the registry Bearer
// token flow: parse the WWW-Authenticate challenge of a 401, then GET
// <realm>?service=<service>&scope=<scope> and read "token" or
// "access_token" from the JSON body.
//
// Failure to obtain a token is an ordinary outcome, reported as
// ("", false), never as an error. Registries that allow anonymous pulls
// answer the anonymous retry that follows.
package registryauth
