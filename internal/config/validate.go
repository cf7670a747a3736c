package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks provider names and numeric ranges before any component is built.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.VectorDB.Provider == "qdrant" && (c.VectorDB.Qdrant == nil || c.VectorDB.Qdrant.URL == "") {
		return errors.New("invalid config: qdrant vector store needs vectordb.qdrant.url")
	}
	return nil
}
