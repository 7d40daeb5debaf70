// Package station speaks the wire protocol of the physical workstations:
// length-prefixed typed frames over TCP carrying action queries and
// dispatch responses.
package station

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
)

// MsgType is the frame type code
type MsgType uint32

const (
	// MsgActionQuery is sent when a tray arrives at a station
	MsgActionQuery MsgType = 0x1046
	// MsgActionDoneQuery is sent when a tray finished local work
	MsgActionDoneQuery MsgType = 0x1047
	// MsgActionRsp carries the dispatch decision back
	MsgActionRsp MsgType = 0x1048
)

const (
	headerSize       = 8
	actionQuerySize  = 8
	actionRspSize    = 20
	maxPayloadLength = 1 << 16
)

// Frame is one typed message on the wire: a fixed header of type code and
// payload length (both u32 little-endian) followed by the payload
type Frame struct {
	Type    MsgType
	Payload []byte
}

// ReadFrame reads exactly one frame from the connection
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}
	msgType := MsgType(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxPayloadLength {
		return Frame{}, fmt.Errorf("frame payload of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("short frame payload: %w", err)
	}
	return Frame{Type: msgType, Payload: payload}, nil
}

// WriteFrame writes one frame to the connection
func WriteFrame(w io.Writer, f Frame) error {
	buf := make([]byte, headerSize+len(f.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.Type))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// EncodeActionQuery serialises a station action query payload
func EncodeActionQuery(q dispatch.Query) []byte {
	buf := make([]byte, actionQuerySize)
	binary.LittleEndian.PutUint32(buf[0:4], q.WorkstationID)
	binary.LittleEndian.PutUint32(buf[4:8], q.TrayID)
	return buf
}

// DecodeActionQuery parses a station action query payload
func DecodeActionQuery(payload []byte) (dispatch.Query, error) {
	if len(payload) != actionQuerySize {
		return dispatch.Query{}, fmt.Errorf("action query payload must be %d bytes, got %d", actionQuerySize, len(payload))
	}
	return dispatch.Query{
		WorkstationID: binary.LittleEndian.Uint32(payload[0:4]),
		TrayID:        binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// EncodeActionRsp serialises a dispatch decision payload: the echoed
// query, then order id, action type and next station id
func EncodeActionRsp(rsp dispatch.Response) []byte {
	buf := make([]byte, actionRspSize)
	binary.LittleEndian.PutUint32(buf[0:4], rsp.Query.WorkstationID)
	binary.LittleEndian.PutUint32(buf[4:8], rsp.Query.TrayID)
	binary.LittleEndian.PutUint32(buf[8:12], rsp.OrderID)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(rsp.Action))
	binary.LittleEndian.PutUint32(buf[16:20], rsp.NextStationID)
	return buf
}

// DecodeActionRsp parses a dispatch decision payload
func DecodeActionRsp(payload []byte) (dispatch.Response, error) {
	if len(payload) != actionRspSize {
		return dispatch.Response{}, fmt.Errorf("action rsp payload must be %d bytes, got %d", actionRspSize, len(payload))
	}
	return dispatch.Response{
		Query: dispatch.Query{
			WorkstationID: binary.LittleEndian.Uint32(payload[0:4]),
			TrayID:        binary.LittleEndian.Uint32(payload[4:8]),
		},
		OrderID:       binary.LittleEndian.Uint32(payload[8:12]),
		Action:        dispatch.Action(binary.LittleEndian.Uint32(payload[12:16])),
		NextStationID: binary.LittleEndian.Uint32(payload[16:20]),
	}, nil
}
