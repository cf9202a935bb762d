// Package calendar is the gateway to the Google Calendar API.
//
// Client implements Gateway on top of google.golang.org/api/calendar/v3.
// All instants are sent as UTC RFC 3339 strings and every failure is
// wrapped in a *GatewayError naming the operation. Calls are not retried.
//
// Example usage:
//
//	client, err := calendar.NewClientForAccountWithProvider(ctx, "default", provider, conf)
//	if err != nil {
//	    return err
//	}
//	events, err := client.ListEvents(ctx, "primary", calendar.ListOptions{
//	    TimeMin:    time.Now(),
//	    MaxResults: 10,
//	})
package calendar
