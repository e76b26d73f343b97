package schema

// Benign-direction labels shared across heads.
const (
	LabelBenign = "benign"
	LabelNone   = "none"
	LabelThreat = "threat"
)

// DisplayFamilyUncategorized replaces a shaky benign family label when the
// binary head disagrees; novel attacks often fit no trained family.
const DisplayFamilyUncategorized = "uncategorized_threat"

// BinaryLabels is the binary head's label set.
var BinaryLabels = []string{LabelBenign, LabelThreat}

// FamilyLabels is the family head's 15-way label set.
var FamilyLabels = []string{
	LabelBenign,
	"prompt_injection",
	"jailbreak",
	"pii_exfiltration",
	"command_injection",
	"encoding_obfuscation",
	"harmful_content",
	"rag_poisoning",
	"agent_manipulation",
	"data_exfiltration",
	"social_engineering",
	"credential_harvesting",
	"model_manipulation",
	"denial_of_service",
	"scope_violation",
}

// SeverityLabels is the severity head's 3-way label set.
var SeverityLabels = []string{LabelNone, "moderate", "severe"}

// TechniqueLabels is the technique head's 35-way label set.
var TechniqueLabels = []string{
	LabelNone,
	"instruction_override",
	"role_or_persona_manipulation",
	"context_switching",
	"payload_splitting",
	"token_smuggling",
	"delimiter_injection",
	"system_prompt_leak",
	"refusal_suppression",
	"hypothetical_framing",
	"dan_style_jailbreak",
	"obfuscated_encoding",
	"base64_payload",
	"unicode_homoglyph",
	"leetspeak_evasion",
	"language_switching",
	"markdown_injection",
	"code_block_escape",
	"tool_invocation_abuse",
	"function_call_forgery",
	"recursive_prompting",
	"few_shot_poisoning",
	"context_overflow",
	"retrieval_poisoning",
	"indirect_injection",
	"cross_prompt_leak",
	"privilege_escalation",
	"multi_turn_grooming",
	"emotional_manipulation",
	"authority_impersonation",
	"urgency_pressure",
	"reward_offering",
	"chain_of_thought_hijack",
	"output_format_coercion",
	"completion_bait",
}

// HarmLabels is the harm head's 10-way independent multilabel set.
var HarmLabels = []string{
	"violence",
	"self_harm",
	"hate",
	"sexual",
	"weapons",
	"illegal_activity",
	"malware",
	"privacy",
	"misinformation",
	"harassment",
}

// BenignLabelFor returns the safe-direction label for a head ("" when the
// head has no single benign label, as for the multilabel harm head).
func BenignLabelFor(h HeadName) string {
	switch h {
	case HeadBinary, HeadFamily:
		return LabelBenign
	case HeadSeverity, HeadTechnique:
		return LabelNone
	default:
		return ""
	}
}
