package bms

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/roboteqbms/internal/errors"
)

const (
	currentScale = 0.01
	voltageScale = 0.01
	cellScale    = 0.001

	// cell voltages sit at tokens 3..10 of the ?V payload
	cellFirstToken = 3
	cellEndToken   = 11

	maxTemperatures = 3
)

// DecodeError reports why a response line could not be decoded.
type DecodeError struct {
	Field Field
	Line  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s from %q: %v", e.Field, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Outcome is the per-field result of one cycle.
type Outcome struct {
	Field Field
	OK    bool
	Err   error
}

// payload returns everything after the first occurrence of tag.
func payload(line, tag string) (string, error) {
	errFactory := errors.New()

	if line == "" {
		return "", errFactory.New(ErrEmptyResponse)
	}

	_, after, found := strings.Cut(line, tag)
	if !found {
		return "", errFactory.WithData(ErrTagNotFound, tag)
	}

	return after, nil
}

func parseFloat(token string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return 0, errors.New().Wrap(ErrInvalidNumber, err)
	}
	// nan and inf parse, but a reading has to be finite
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New().WithData(ErrInvalidNumber, strings.TrimSpace(token))
	}
	return v, nil
}

func parseInt(token string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return 0, errors.New().Wrap(ErrInvalidNumber, err)
	}
	return v, nil
}

func decodeScalar(line, tag string, scale float64) (float64, error) {
	p, err := payload(line, tag)
	if err != nil {
		return 0, err
	}

	v, err := parseFloat(p)
	if err != nil {
		return 0, err
	}

	return v * scale, nil
}

// DecodeStateOfCharge parses a "BSC=<percent>" line.
func DecodeStateOfCharge(line string) (float64, error) {
	return decodeScalar(line, "BSC=", 1)
}

// DecodeCurrent parses an "A=<centiamps>" line into amperes.
func DecodeCurrent(line string) (float64, error) {
	return decodeScalar(line, "A=", currentScale)
}

// DecodeVoltage parses a "V=<centivolts>" line into volts.
func DecodeVoltage(line string) (float64, error) {
	return decodeScalar(line, "V=", voltageScale)
}

// DecodeCellVoltages parses a "V=v0:v1:...:v10" line and returns the eight
// cell voltages carried in tokens 3 through 10, in volts.
func DecodeCellVoltages(line string) ([]float64, error) {
	p, err := payload(line, "V=")
	if err != nil {
		return nil, err
	}

	tokens := strings.Split(p, ":")
	if len(tokens) < cellEndToken {
		return nil, errors.New().WithData(ErrShortPayload, struct {
			Tokens int
			Want   int
		}{
			Tokens: len(tokens),
			Want:   cellEndToken,
		})
	}

	cells := make([]float64, 0, cellEndToken-cellFirstToken)
	for _, token := range tokens[cellFirstToken:cellEndToken] {
		v, err := parseFloat(token)
		if err != nil {
			return nil, err
		}
		cells = append(cells, v*cellScale)
	}

	return cells, nil
}

// DecodeTemperatures parses a "T=t0:t1:..." line. Every token has to be an
// integer; at most the first three are returned.
func DecodeTemperatures(line string) ([]int, error) {
	p, err := payload(line, "T=")
	if err != nil {
		return nil, err
	}

	tokens := strings.Split(p, ":")
	temps := make([]int, 0, len(tokens))
	for _, token := range tokens {
		v, err := parseInt(token)
		if err != nil {
			return nil, err
		}
		temps = append(temps, v)
	}

	if len(temps) > maxTemperatures {
		temps = temps[:maxTemperatures]
	}
	return temps, nil
}

// DecodeFlags returns the text after tag with carriage returns removed and the
// line terminator trimmed. An empty flag text is valid.
func DecodeFlags(line, tag string) (string, error) {
	p, err := payload(line, tag)
	if err != nil {
		return "", err
	}

	p = strings.ReplaceAll(p, "\r", "")
	return strings.TrimSuffix(p, "\n"), nil
}

// Decode runs the recipe for field on line and, only when it succeeds, stores
// the result in snap.
func Decode(field Field, line string, snap *Snapshot) Outcome {
	if err := apply(field, line, snap); err != nil {
		return Outcome{
			Field: field,
			Err:   &DecodeError{Field: field, Line: line, Err: err},
		}
	}
	return Outcome{Field: field, OK: true}
}

func apply(field Field, line string, snap *Snapshot) error {
	switch field {
	case FieldStateOfCharge:
		v, err := DecodeStateOfCharge(line)
		if err != nil {
			return err
		}
		snap.StateOfCharge = v

	case FieldCurrent:
		v, err := DecodeCurrent(line)
		if err != nil {
			return err
		}
		snap.setCurrent(v)

	case FieldVoltage:
		v, err := DecodeVoltage(line)
		if err != nil {
			return err
		}
		snap.Voltage = v

	case FieldCellVoltages:
		cells, err := DecodeCellVoltages(line)
		if err != nil {
			return err
		}
		snap.setCells(cells)

	case FieldTemperatures:
		temps, err := DecodeTemperatures(line)
		if err != nil {
			return err
		}
		snap.Temperatures = temps

	case FieldStatusFlags:
		flags, err := DecodeFlags(line, "FS=")
		if err != nil {
			return err
		}
		snap.StatusFlags = flags

	case FieldFaultFlags:
		flags, err := DecodeFlags(line, "FF=")
		if err != nil {
			return err
		}
		snap.FaultFlags = flags

	default:
		return errors.New().WithData(ErrUnknownField, int(field))
	}

	return nil
}
