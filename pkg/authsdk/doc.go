/*
Package authsdk holds the wire types of the authentication service and a small
Go client for it.

# Client

	client := authsdk.NewClient("http://localhost:8080")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Username:     "alice",
		EmailAddress: "a@x.com",
		Password:     "pw1",
	})

	login, err := client.Login(ctx, authsdk.LoginRequest{
		Username:     "alice",
		EmailAddress: "a@x.com",
		Password:     "pw1",
	})

	me, err := client.Me(ctx, login.Token)

Tokens are plain HS256 JWTs valid for ten hours. There is no refresh: log in
again once a token expires. Tokens do not survive a server restart.

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status and
the server's message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		// log in again
	}

# Validation

Request types implement Validate using ozzo-validation. The server runs the
same checks, so calling Validate client-side only saves a round trip.
*/
package authsdk
