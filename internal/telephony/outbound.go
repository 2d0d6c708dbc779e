package telephony

import (
	"fmt"
	"net/url"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// OutboundCaller places outbound calls through the telephony provider's REST
// API and generates the TwiML the provider fetches to connect the call's
// media stream back to our WebSocket endpoint.
type OutboundCaller struct {
	client       *twilio.RestClient
	fromNumber   string
	publicBaseURL string
}

// NewOutboundCaller creates a caller bound to one account's credentials.
func NewOutboundCaller(accountSid, authToken, fromNumber, publicBaseURL string) *OutboundCaller {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &OutboundCaller{client: client, fromNumber: fromNumber, publicBaseURL: publicBaseURL}
}

// PlaceCall dials toNumber and points the provider at our /twiml endpoint,
// which in turn connects the call's media stream to /ws. Returns the
// provider's call id.
func (o *OutboundCaller) PlaceCall(toNumber, systemPromptOverride string) (string, error) {
	twimlURL := o.publicBaseURL + "/twiml"
	if systemPromptOverride != "" {
		twimlURL += "?system_prompt=" + url.QueryEscape(systemPromptOverride)
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(o.fromNumber)
	params.SetUrl(twimlURL)

	resp, err := o.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("create outbound call: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("outbound call created with no sid")
	}
	return *resp.Sid, nil
}

// TwiML renders the document the provider requests when it answers a call:
// a <Connect><Stream> pointed at our WebSocket endpoint. streamURL must be
// the wss:// form of the /ws endpoint.
func TwiML(streamURL, systemPromptOverride string) string {
	params := ""
	if systemPromptOverride != "" {
		params = fmt.Sprintf(`<Parameter name="system_prompt" value="%s" />`, escapeXML(systemPromptOverride))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s">
      %s
    </Stream>
  </Connect>
</Response>`, escapeXML(streamURL), params)
}

func escapeXML(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '&':
			out = append(out, []rune("&amp;")...)
		case '<':
			out = append(out, []rune("&lt;")...)
		case '>':
			out = append(out, []rune("&gt;")...)
		case '"':
			out = append(out, []rune("&quot;")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
