package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parley-cli/parley/pkg/chats/chat"
	"github.com/parley-cli/parley/pkg/chats/message"
	"gopkg.in/yaml.v3"
)

type logMessage struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

type logDocument struct {
	Session   string       `yaml:"session"`
	Model     string       `yaml:"model"`
	ModelType string       `yaml:"model_type"`
	Started   time.Time    `yaml:"started"`
	Messages  []logMessage `yaml:"messages"`
}

// writeLog serializes the history to a timestamped YAML file under dir.
func writeLog(dir, sessionID, model, modelType string, started time.Time, history *chat.Chat) error {
	doc := logDocument{
		Session:   sessionID,
		Model:     model,
		ModelType: modelType,
		Started:   started,
		Messages:  make([]logMessage, 0, history.Len()),
	}

	history.Each(func(_ int, m message.Message) bool {
		doc.Messages = append(doc.Messages, logMessage{
			Role:    string(m.Role),
			Content: m.TextContent(),
		})
		return true
	})

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session: marshal chat log: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("session: create chat log dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.yaml", started.Format("20060102-150405"), shortID(sessionID))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return fmt.Errorf("session: write chat log: %w", err)
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
