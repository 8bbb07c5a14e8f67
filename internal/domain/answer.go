package domain

import (
	"math/big"
	"strings"
	"time"
)

// Reserved 32-byte answer values.
const (
	AnswerUnresolved      = "0x0000000000000000000000000000000000000000000000000000000000000000"
	AnswerAnsweredTooSoon = "0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe"
	AnswerInvalid         = "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
)

// Labels shown for the reserved answers.
const (
	LabelUnanswered      = "Unanswered"
	LabelAnsweredTooSoon = "Answered Too Soon"
	LabelInvalid         = "Invalid Answer"
)

// IsTooSoonAnswer reports whether a finalized answer means the question
// settled without a usable result.
func IsTooSoonAnswer(hex string) bool {
	switch strings.ToLower(hex) {
	case AnswerAnsweredTooSoon, AnswerUnresolved:
		return true
	}
	return false
}

// QuestionType is the answer encoding a question declares.
type QuestionType string

const (
	TypeBool           QuestionType = "bool"
	TypeUint           QuestionType = "uint"
	TypeSingleSelect   QuestionType = "single-select"
	TypeMultipleSelect QuestionType = "multiple-select"
	TypeDatetime       QuestionType = "datetime"
)

// DecodeAnswer turns a raw bytes32 answer into a display label. Reserved
// values map to fixed labels and take precedence over typ. An unknown typ
// falls back to indexing options when there are any. Values that cannot be
// decoded are returned unchanged.
func DecodeAnswer(hex string, typ QuestionType, options []string) string {
	h := strings.ToLower(hex)
	switch h {
	case AnswerUnresolved:
		return LabelUnanswered
	case AnswerAnsweredTooSoon:
		return LabelAnsweredTooSoon
	case AnswerInvalid:
		return LabelInvalid
	}

	digits := strings.TrimPrefix(h, "0x")
	if digits == h || digits == "" {
		return hex
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return hex
	}

	switch typ {
	case TypeBool:
		switch {
		case n.Sign() == 0:
			return "No"
		case n.Cmp(big.NewInt(1)) == 0:
			return "Yes"
		}
		return hex
	case TypeUint:
		return n.String()
	case TypeDatetime:
		if !n.IsInt64() {
			return hex
		}
		return time.Unix(n.Int64(), 0).UTC().Format(time.RFC3339)
	case TypeMultipleSelect:
		var picked []string
		for i, opt := range options {
			if n.Bit(i) == 1 {
				picked = append(picked, opt)
			}
		}
		if len(picked) == 0 {
			return hex
		}
		return strings.Join(picked, ", ")
	}

	if len(options) == 0 || !n.IsInt64() {
		return hex
	}
	idx := n.Int64()
	if idx >= int64(len(options)) {
		return hex
	}
	return options[idx]
}
