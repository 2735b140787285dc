package git

import (
	"fmt"
	"math/rand"
)

// commitPrefixes lead the common message shapes. The pool never uses
// the same prefix twice in a row so the history reads like a person.
var commitPrefixes = []string{
	"Document",
	"Add docs for",
	"Analyze",
	"Detail",
	"Explain",
	"Cover",
}

var minorFixTemplates = []string{
	"fix typo in %s docs",
	"update formatting in %s",
	"clarify %s explanation",
	"improve %s documentation",
	"refine %s description",
}

// MessagePool generates varied commit messages. Not safe for
// concurrent use; the cycle loop owns one instance.
type MessagePool struct {
	rng        *rand.Rand
	lastPrefix string
}

// NewMessagePool creates a pool with the given random source seed.
func NewMessagePool(seed int64) *MessagePool {
	return &MessagePool{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a commit message for documenting the named entity.
func (p *MessagePool) Next(entityName, angle string) string {
	prefix := p.pickPrefix()

	templates := []string{
		fmt.Sprintf("%s %s implementation", prefix, entityName),
		fmt.Sprintf("%s %s (%s)", prefix, entityName, angle),
		fmt.Sprintf("%s %s", prefix, entityName),
		fmt.Sprintf("add notes: %s", entityName),
		fmt.Sprintf("cover %s patterns", entityName),
	}
	return templates[p.rng.Intn(len(templates))]
}

// Minor returns a small-touch message, used for follow-up edits.
func (p *MessagePool) Minor(entityName string) string {
	return fmt.Sprintf(minorFixTemplates[p.rng.Intn(len(minorFixTemplates))], entityName)
}

func (p *MessagePool) pickPrefix() string {
	candidates := make([]string, 0, len(commitPrefixes))
	for _, pfx := range commitPrefixes {
		if pfx != p.lastPrefix {
			candidates = append(candidates, pfx)
		}
	}
	prefix := candidates[p.rng.Intn(len(candidates))]
	p.lastPrefix = prefix
	return prefix
}
