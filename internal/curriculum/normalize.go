package curriculum

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Normalize rewrites every subtopic into its complete object form: a
// non-nil resources list and a stable id. It returns the number of subtopics
// it changed; a second call returns 0.
func Normalize(c *Curriculum) int {
	changed := 0
	for ci := range c.LearningPath {
		cat := &c.LearningPath[ci]
		for ti := range cat.Topics {
			topic := &cat.Topics[ti]

			used := make(map[string]bool, len(topic.Subtopics))
			for _, s := range topic.Subtopics {
				if s.ID != "" {
					used[s.ID] = true
				}
			}

			for si := range topic.Subtopics {
				sub := &topic.Subtopics[si]
				touched := false
				if sub.Resources == nil {
					sub.Resources = []Resource{}
					touched = true
				}
				if sub.ID == "" {
					sub.ID = subtopicID(cat.ID, topic.ID, sub.Name, used)
					used[sub.ID] = true
					touched = true
				}
				if touched {
					changed++
				}
			}
		}
	}
	return changed
}

// subtopicID derives an id from the subtopic's position at the time it is
// first normalized. Once written it never changes, so later renames keep it.
func subtopicID(catID, topicID ID, name string, used map[string]bool) string {
	seed := string(catID) + "/" + string(topicID) + "/" + name
	for i := 0; ; i++ {
		input := seed
		if i > 0 {
			input += "#" + strconv.Itoa(i)
		}
		sum := blake2b.Sum256([]byte(input))
		id := hex.EncodeToString(sum[:6])
		if !used[id] {
			return id
		}
	}
}
