// Package telephony implements the duplex, newline-free JSON-over-WebSocket
// protocol the provider speaks for a live call's media stream, and the
// WebSocket read loop that feeds one call's session.Call through it.
package telephony

import "encoding/json"

// inboundEvent is the outer envelope every inbound frame carries; the event
// name selects which of the optional payload fields is populated.
type inboundEvent struct {
	Event string `json:"event"`

	Start *startPayload `json:"start,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
	Stop  *stopPayload  `json:"stop,omitempty"`
	Mark  *markPayload  `json:"mark,omitempty"`
	DTMF  *dtmfPayload  `json:"dtmf,omitempty"`

	StreamSid string `json:"streamSid,omitempty"`
}

type startPayload struct {
	CallSid          string            `json:"callSid"`
	StreamSid        string            `json:"streamSid"`
	MediaFormat      mediaFormat       `json:"mediaFormat"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type mediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type stopPayload struct {
	CallSid   string `json:"callSid"`
	StreamSid string `json:"streamSid"`
}

type markPayload struct {
	Name string `json:"name"`
}

type dtmfPayload struct {
	Digit string `json:"digit"`
}

// outboundMediaEvent carries one outbound audio frame back to the provider.
type outboundMediaEvent struct {
	Event     string              `json:"event"`
	StreamSid string              `json:"streamSid"`
	Media     outboundMediaFields `json:"media"`
}

type outboundMediaFields struct {
	Payload string `json:"payload"`
}

// outboundClearEvent tells the provider to discard any audio it has already
// buffered for playback, used on barge-in.
type outboundClearEvent struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

func parseInboundEvent(data []byte) (*inboundEvent, error) {
	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func encodeMediaEvent(streamSid, payload string) ([]byte, error) {
	return json.Marshal(outboundMediaEvent{
		Event:     "media",
		StreamSid: streamSid,
		Media:     outboundMediaFields{Payload: payload},
	})
}

func encodeClearEvent(streamSid string) ([]byte, error) {
	return json.Marshal(outboundClearEvent{Event: "clear", StreamSid: streamSid})
}
