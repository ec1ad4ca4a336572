package curriculum

import (
	"strconv"
	"strings"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
)

// AddResource appends r to a subtopic's resources. Title and URL are
// required; an empty type defaults to Other. On error the list is unchanged.
func (c *Curriculum) AddResource(catID, topicID, subtopic string, r Resource) error {
	r.Title = strings.TrimSpace(r.Title)
	r.URL = strings.TrimSpace(r.URL)
	r.Description = strings.TrimSpace(r.Description)
	if r.URL == "" {
		return apperr.Invalid("url", "is required")
	}
	if r.Title == "" {
		return apperr.Invalid("title", "is required")
	}
	if r.Type == "" {
		r.Type = ResourceOther
	}
	if !r.Type.Valid() {
		return apperr.Invalid("type", "unknown resource type "+strconv.Quote(string(r.Type)))
	}

	sub, err := c.Subtopic(catID, topicID, subtopic)
	if err != nil {
		return err
	}
	sub.Resources = append(sub.Resources, r)
	return nil
}

// RemoveResource deletes the resource at index, keeping the remaining
// resources in their original order.
func (c *Curriculum) RemoveResource(catID, topicID, subtopic string, index int) error {
	sub, err := c.Subtopic(catID, topicID, subtopic)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(sub.Resources) {
		return apperr.NotFound("resource", sub.Name+"#"+strconv.Itoa(index))
	}

	kept := make([]Resource, 0, len(sub.Resources)-1)
	kept = append(kept, sub.Resources[:index]...)
	kept = append(kept, sub.Resources[index+1:]...)
	sub.Resources = kept
	return nil
}

// EditNotes replaces a subtopic's notes.
func (c *Curriculum) EditNotes(catID, topicID, subtopic, notes string) error {
	sub, err := c.Subtopic(catID, topicID, subtopic)
	if err != nil {
		return err
	}
	sub.Notes = notes
	return nil
}
