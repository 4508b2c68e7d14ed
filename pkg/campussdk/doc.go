/*
Package campussdk provides the wire types and a client for the campus events
service.

The server writes these types and the client reads them, so the JSON shape
is defined once. Errors from the API come back as *APIError and can be
matched against the predefined values:

	client := campussdk.NewSDKClient("http://localhost:8080")

	if _, err := client.Login(ctx, "jane@college.edu", "secret123"); err != nil {
		if errors.Is(err, campussdk.ErrNotVerified) {
			// prompt for the OTP
		}
		return err
	}

	reg, err := client.RegisterForEvent(ctx, eventID)

The client keeps the session cookie in its jar, so after Login or VerifyOTP
every call is made as that account. A client is safe for concurrent use but
represents a single signed-in browser.
*/
package campussdk
