package rules

const defaultCorpusVersion = "1.2.0"

// defaultRules is the compiled-in corpus. It mirrors the externally
// authored YAML format one-to-one so operators can replace it wholesale.
func defaultRules() []Rule {
	return []Rule{
		{
			ID:          "pi.ignore_previous",
			Family:      "PI",
			Severity:    "high",
			Confidence:  0.9,
			Pattern:     `(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts|rules)`,
			Description: "explicit instruction override",
		},
		{
			ID:          "pi.new_instructions",
			Family:      "PI",
			Severity:    "medium",
			Confidence:  0.75,
			Pattern:     `(?i)(your\s+new\s+instructions|from\s+now\s+on\s+you\s+(are|will|must))`,
			Description: "instruction replacement attempt",
		},
		{
			ID:          "pi.system_prompt_leak",
			Family:      "PI",
			Severity:    "high",
			Confidence:  0.85,
			Pattern:     `(?i)(repeat|reveal|print|show)\s+(your\s+)?(system\s+prompt|initial\s+instructions)`,
			Description: "system prompt exfiltration",
		},
		{
			ID:          "jb.dan_style",
			Family:      "JB",
			Severity:    "critical",
			Confidence:  0.95,
			Pattern:     `(?i)(do\s+anything\s+now|\bDAN\s+mode\b|jailbreak(ed|ing)?\b)`,
			Description: "DAN-style jailbreak",
		},
		{
			ID:          "jb.no_restrictions",
			Family:      "JB",
			Severity:    "high",
			Confidence:  0.8,
			Pattern:     `(?i)(no\s+(restrictions|rules|filters|guidelines)|you\s+are\s+no\s+longer\s+bound|without\s+any\s+(censorship|limitations))`,
			Description: "restriction removal request",
		},
		{
			ID:          "jb.roleplay_unsafe",
			Family:      "JB",
			Severity:    "medium",
			Confidence:  0.7,
			Pattern:     `(?i)(pretend|act\s+as\s+if)\s+you\s+(have\s+no|are\s+free\s+of)\s+(rules|restrictions|guidelines)`,
			Description: "persona-based restriction bypass",
		},
		{
			ID:          "pii.email",
			Family:      "PII",
			Severity:    "low",
			Confidence:  0.95,
			Pattern:     `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
			Description: "email address",
		},
		{
			ID:          "pii.credit_card",
			Family:      "PII",
			Severity:    "medium",
			Confidence:  0.7,
			Pattern:     `\b(?:\d[ -]*?){13,16}\b`,
			Description: "possible payment card number",
		},
		{
			ID:          "pii.iban",
			Family:      "PII",
			Severity:    "medium",
			Confidence:  0.85,
			Pattern:     `\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`,
			Description: "IBAN",
		},
		{
			ID:          "cmd.shell",
			Family:      "CMD",
			Severity:    "high",
			Confidence:  0.85,
			Pattern:     `(?i)(rm\s+-rf\s+/|chmod\s+777|curl\s+http[^\s]*\s*\|\s*(ba)?sh|bash\s+-c|powershell\s+-enc)`,
			Description: "shell command injection",
		},
		{
			ID:          "cmd.sql",
			Family:      "CMD",
			Severity:    "high",
			Confidence:  0.8,
			Pattern:     `(?i)(union\s+select|or\s+1=1|drop\s+table|information_schema|xp_cmdshell)`,
			Description: "SQL injection",
		},
		{
			ID:          "enc.base64_blob",
			Family:      "ENC",
			Severity:    "low",
			Confidence:  0.6,
			Pattern:     `\b[A-Za-z0-9+/]{60,}={0,2}\b`,
			Description: "long base64 payload",
		},
		{
			ID:          "enc.decode_request",
			Family:      "ENC",
			Severity:    "medium",
			Confidence:  0.7,
			Pattern:     `(?i)(decode|execute)\s+(this|the\s+following)\s+(base64|hex|rot13)`,
			Description: "obfuscated payload execution request",
		},
		{
			ID:          "hc.violence",
			Family:      "HC",
			Severity:    "high",
			Confidence:  0.75,
			Pattern:     `(?i)how\s+to\s+(make|build)\s+(a\s+)?(bomb|explosive|weapon)`,
			Description: "weapons construction request",
		},
		{
			ID:          "rag.doc_override",
			Family:      "RAG",
			Severity:    "high",
			Confidence:  0.8,
			Pattern:     `(?i)(when\s+summarizing|if\s+you\s+are\s+an?\s+(ai|llm|assistant)\s+reading\s+this)`,
			Description: "instructions embedded for a retrieval consumer",
		},
		{
			ID:          "agent.tool_abuse",
			Family:      "AGENT",
			Severity:    "high",
			Confidence:  0.8,
			Pattern:     `(?i)(call\s+the\s+\w+\s+tool\s+with|invoke\s+function\s+\w+\s+ignoring)`,
			Description: "agent tool invocation coercion",
		},
	}
}
