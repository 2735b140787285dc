package generate

import (
	"fmt"
	"strings"
)

// angleInstructions maps each documentation angle to the instruction
// block appended to the prompt. Unknown angles fall back to a general
// explanation request so new config-defined angles work without a code
// change.
var angleInstructions = map[string]string{
	"function_doc": `Write reference documentation for this code: purpose, parameters,
return values, error conditions, and one short usage example.`,
	"class_overview": `Write an overview of this type: its responsibility, the invariants it
maintains, how its methods collaborate, and when to reach for it.`,
	"architecture_note": `Write an architecture note: where this component sits in the system,
what it depends on, what depends on it, and the key design decisions.`,
	"usage_example": `Write a worked usage example: realistic setup, the call itself, and
what the caller should do with the result. Keep prose minimal.`,
	"security_review": `Review this code from a security angle: input handling, resource
lifetimes, failure modes an attacker could lean on. Note what is sound
as well as what deserves attention.`,
	"perf_note": `Write a performance note: the hot path, allocation behavior, and the
complexity of the main operations. Call out anything surprising.`,
	"changelog_entry": `Write a changelog-style summary of what this change does from a user's
point of view, one short paragraph plus bullet points.`,
}

const generalInstruction = `Explain what this code does and why it is structured this way, for a
developer seeing it for the first time.`

// buildPrompt assembles the generation prompt for a request.
func buildPrompt(req *Request) string {
	instruction, ok := angleInstructions[req.Angle.Name]
	if !ok {
		instruction = generalInstruction
	}

	var flags string
	if len(req.Entity.Flags) > 0 {
		parts := make([]string, len(req.Entity.Flags))
		for i, f := range req.Entity.Flags {
			parts[i] = string(f)
		}
		flags = "\nNotable properties: " + strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`You are documenting source code for the %s repository.

Target: %s %s (%d lines)%s

%s

Start with a single markdown heading line naming the document, then the
content. Write plainly and concretely; no filler.

Source:
%s`,
		req.Repo.Name,
		req.Entity.Kind, req.Entity.Identifier, req.Entity.LineCount, flags,
		instruction,
		req.Entity.Source)
}
