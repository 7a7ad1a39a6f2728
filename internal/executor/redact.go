package executor

// auditDenylist names the payload fields presumed to carry free text or PII.
// They are stripped from the audit copy; everything else passes through so
// operators keep visibility into what the agent proposed.
var auditDenylist = map[string]struct{}{
	"reply_text": {},
	"email_body": {},
	"message":    {},
}

// RedactPayload returns a copy of payload without the denylisted fields.
// The original map is never modified.
func RedactPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if _, blocked := auditDenylist[k]; blocked {
			continue
		}
		out[k] = v
	}
	return out
}
