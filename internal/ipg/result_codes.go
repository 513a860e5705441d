package ipg

import "strings"

// ResultInfo describes a notification result value and the response codes
// that commonly accompany it.
type ResultInfo struct {
	Result      string
	Display     string
	IsCaptured  bool
	UserMessage string
}

// Result values the gateway delivers in notifications. CAPTURED and
// APPROVED both mean funds secured; everything else is a decline variant.
var resultCodes = map[string]ResultInfo{
	"CAPTURED": {
		Result:      "CAPTURED",
		Display:     "CAPTURED",
		IsCaptured:  true,
		UserMessage: "Payment successful",
	},
	"APPROVED": {
		Result:      "APPROVED",
		Display:     "APPROVED",
		IsCaptured:  true,
		UserMessage: "Payment successful",
	},
	"NOT CAPTURED": {
		Result:      "NOT CAPTURED",
		Display:     "NOT CAPTURED",
		UserMessage: "Payment was declined by your bank",
	},
	"DENIED BY RISK": {
		Result:      "DENIED BY RISK",
		Display:     "DENIED BY RISK",
		UserMessage: "Payment could not be completed",
	},
	"HOST TIMEOUT": {
		Result:      "HOST TIMEOUT",
		Display:     "HOST TIMEOUT",
		UserMessage: "Payment could not be completed",
	},
	"CANCELED": {
		Result:      "CANCELED",
		Display:     "CANCELED",
		UserMessage: "Payment was cancelled",
	},
}

// ClassifyResult maps a notification result to its info. Unknown values
// classify as declined so a new gateway result can never capture an order
// without a code change.
func ClassifyResult(result string) ResultInfo {
	normalized := strings.ToUpper(strings.TrimSpace(result))
	if info, ok := resultCodes[normalized]; ok {
		return info
	}
	return ResultInfo{
		Result:      normalized,
		Display:     normalized,
		UserMessage: "Payment was declined",
	}
}
