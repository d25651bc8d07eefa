// Package parser converts the bridge line protocol and telemetry text forms
// to structured types and vice-versa.
//
// Bridge wire format (host -> MCU, one request per line):
//
//	MODE <pin> OUT|IN|IN_PULLUP
//	W <pin> <0|1>
//	R <pin>
//	PING <trig> <echo> <timeout_us>
//	DHT <pin>
//	IMU BEGIN <addr>
//	IMU
//
// Replies (MCU -> host, one line each): OK, V <0|1>, P <width_us>,
// H <temp> <hum>, M <ax> <ay> <az> <gx> <gy> <gz>, ERR <message>.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"RoverCore/internal/model"
)

// Op is a bridge request opcode.
type Op string

const (
	OpMode     Op = "MODE"
	OpWrite    Op = "W"
	OpRead     Op = "R"
	OpPing     Op = "PING"
	OpDHT      Op = "DHT"
	OpIMUBegin Op = "IMU BEGIN"
	OpIMURead  Op = "IMU"
)

// Reply kinds.
const (
	ReplyOK      = "OK"
	ReplyLevel   = "V"
	ReplyPing    = "P"
	ReplyClimate = "H"
	ReplyMotion  = "M"
	ReplyError   = "ERR"
)

// ErrEmptyLine is returned when decoding a blank line.
var ErrEmptyLine = errors.New("empty line")

// Request is one bridge request.
type Request struct {
	Op      Op
	Pin     int // MODE, W, R, DHT; trigger pin for PING
	Echo    int // PING
	Mode    model.PinMode
	Level   model.Level
	Timeout time.Duration // PING
	Addr    int           // IMU BEGIN
}

// Encode renders the request as a protocol line (without newline).
func (r Request) Encode() string {
	switch r.Op {
	case OpMode:
		return fmt.Sprintf("MODE %d %s", r.Pin, r.Mode)
	case OpWrite:
		return fmt.Sprintf("W %d %d", r.Pin, r.Level)
	case OpRead:
		return fmt.Sprintf("R %d", r.Pin)
	case OpPing:
		return fmt.Sprintf("PING %d %d %d", r.Pin, r.Echo, r.Timeout.Microseconds())
	case OpDHT:
		return fmt.Sprintf("DHT %d", r.Pin)
	case OpIMUBegin:
		return fmt.Sprintf("IMU BEGIN %d", r.Addr)
	default:
		return string(r.Op)
	}
}

// DecodeRequest parses a request line.
func DecodeRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, ErrEmptyLine
	}
	ints, err := atoiAll(fields[1:])
	switch Op(fields[0]) {
	case OpMode:
		if len(fields) != 3 {
			return Request{}, fmt.Errorf("MODE: expected 2 args, got %d", len(fields)-1)
		}
		pin, err := strconv.Atoi(fields[1])
		if err != nil {
			return Request{}, fmt.Errorf("MODE: invalid pin %q", fields[1])
		}
		mode := model.PinMode(fields[2])
		if mode != model.Output && mode != model.Input && mode != model.InputPullUp {
			return Request{}, fmt.Errorf("MODE: invalid mode %q", fields[2])
		}
		return Request{Op: OpMode, Pin: pin, Mode: mode}, nil
	case OpWrite:
		if err != nil || len(ints) != 2 || (ints[1] != 0 && ints[1] != 1) {
			return Request{}, fmt.Errorf("W: invalid args %q", line)
		}
		return Request{Op: OpWrite, Pin: ints[0], Level: model.Level(ints[1])}, nil
	case OpRead:
		if err != nil || len(ints) != 1 {
			return Request{}, fmt.Errorf("R: invalid args %q", line)
		}
		return Request{Op: OpRead, Pin: ints[0]}, nil
	case OpPing:
		if err != nil || len(ints) != 3 {
			return Request{}, fmt.Errorf("PING: invalid args %q", line)
		}
		return Request{Op: OpPing, Pin: ints[0], Echo: ints[1], Timeout: time.Duration(ints[2]) * time.Microsecond}, nil
	case OpDHT:
		if err != nil || len(ints) != 1 {
			return Request{}, fmt.Errorf("DHT: invalid args %q", line)
		}
		return Request{Op: OpDHT, Pin: ints[0]}, nil
	case OpIMURead:
		if len(fields) == 1 {
			return Request{Op: OpIMURead}, nil
		}
		if len(fields) == 3 && fields[1] == "BEGIN" {
			addr, err := strconv.Atoi(fields[2])
			if err != nil {
				return Request{}, fmt.Errorf("IMU BEGIN: invalid addr %q", fields[2])
			}
			return Request{Op: OpIMUBegin, Addr: addr}, nil
		}
		return Request{}, fmt.Errorf("IMU: invalid args %q", line)
	}
	return Request{}, fmt.Errorf("unknown op %q", fields[0])
}

// Reply is one decoded bridge reply.
type Reply struct {
	Kind   string
	Fields []string
}

// DecodeReply splits a reply line into its kind and fields.
// An ERR reply keeps the remainder of the line as a single field.
func DecodeReply(line string) (Reply, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reply{}, ErrEmptyLine
	}
	if kind, msg, ok := strings.Cut(line, " "); ok && kind == ReplyError {
		return Reply{Kind: ReplyError, Fields: []string{msg}}, nil
	}
	fields := strings.Fields(line)
	return Reply{Kind: fields[0], Fields: fields[1:]}, nil
}

// Level extracts the level of a V reply.
func (r Reply) Level() (model.Level, error) {
	if err := r.expect(ReplyLevel, 1); err != nil {
		return model.Low, err
	}
	switch r.Fields[0] {
	case "0":
		return model.Low, nil
	case "1":
		return model.High, nil
	}
	return model.Low, fmt.Errorf("invalid level %q", r.Fields[0])
}

// Width extracts the echo width of a P reply.
func (r Reply) Width() (time.Duration, error) {
	if err := r.expect(ReplyPing, 1); err != nil {
		return 0, err
	}
	us, err := strconv.ParseInt(r.Fields[0], 10, 64)
	if err != nil || us < 0 {
		return 0, fmt.Errorf("invalid echo width %q", r.Fields[0])
	}
	return time.Duration(us) * time.Microsecond, nil
}

// Climate extracts temperature and humidity of an H reply. NaN is accepted.
func (r Reply) Climate() (float64, float64, error) {
	if err := r.expect(ReplyClimate, 2); err != nil {
		return 0, 0, err
	}
	vals, err := parseFloats(r.Fields)
	if err != nil {
		return 0, 0, err
	}
	return vals[0], vals[1], nil
}

// Motion extracts acceleration and angular rate of an M reply.
func (r Reply) Motion() (model.Vector3, model.Vector3, error) {
	if err := r.expect(ReplyMotion, 6); err != nil {
		return model.Vector3{}, model.Vector3{}, err
	}
	v, err := parseFloats(r.Fields)
	if err != nil {
		return model.Vector3{}, model.Vector3{}, err
	}
	return model.Vector3{X: v[0], Y: v[1], Z: v[2]}, model.Vector3{X: v[3], Y: v[4], Z: v[5]}, nil
}

func (r Reply) expect(kind string, n int) error {
	if r.Kind != kind {
		return fmt.Errorf("expected %s reply, got %s", kind, r.Kind)
	}
	if len(r.Fields) != n {
		return fmt.Errorf("%s reply: expected %d fields, got %d", kind, n, len(r.Fields))
	}
	return nil
}

// EncodeOK renders an OK reply.
func EncodeOK() string { return ReplyOK }

// EncodeError renders an ERR reply.
func EncodeError(msg string) string {
	return ReplyError + " " + strings.ReplaceAll(msg, "\n", " ")
}

// EncodeLevel renders a V reply.
func EncodeLevel(l model.Level) string { return fmt.Sprintf("V %d", l) }

// EncodeWidth renders a P reply.
func EncodeWidth(d time.Duration) string { return fmt.Sprintf("P %d", d.Microseconds()) }

// EncodeClimate renders an H reply.
func EncodeClimate(temp, hum float64) string {
	return fmt.Sprintf("H %s %s", formatFloat(temp), formatFloat(hum))
}

// EncodeMotion renders an M reply.
func EncodeMotion(a, g model.Vector3) string {
	return strings.Join([]string{"M",
		formatFloat(a.X), formatFloat(a.Y), formatFloat(a.Z),
		formatFloat(g.X), formatFloat(g.Y), formatFloat(g.Z),
	}, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
