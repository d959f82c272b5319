// Package protocol is the binary wire format the dev server streams render
// passes in.
//
// # Wire Format
//
// Every message is a frame:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (uvarint)                     │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameRender (0x01): one reconciler pass
//   - FramePing (0x02): keepalive
//   - FrameError (0x03): a UTF-8 error message
//
// # Encoding
//
//   - Varint: compact encoding for counts and lengths (protobuf-style)
//   - ZigZag: signed integers (sequence numbers) as unsigned varints
//   - Length-prefixed: strings prefixed with their varint length
//
// # Render Payload
//
//	[Pass: uvarint][Count: uvarint]{[Kind: byte][Seq: svarint][fields]}...
//
// Keys and attribute values are sent in printed form behind a presence
// byte. Ref captures are sent as bare markers; their callbacks stay on the
// server.
package protocol
