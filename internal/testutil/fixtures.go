// Package testutil provides test helper utilities for intervue tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempHome creates a temporary intervue home directory with the given files
// and returns its path. Files is a map of relative path -> content.
// The directory is automatically cleaned up when the test finishes.
func TempHome(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfigYAML returns a config.yaml pointing at the given fake services.
func ConfigYAML(apiURL, identityURL, anonKey string) string {
	return "version: 1\n" +
		"api:\n  base_url: " + apiURL + "\n" +
		"identity:\n  url: " + identityURL + "\n  anon_key: " + anonKey + "\n" +
		"speech:\n  muted: true\n"
}

// SessionRow returns an interview_sessions row owned by userID.
func SessionRow(userID, createdAt string, average float64, questions ...map[string]interface{}) map[string]interface{} {
	if questions == nil {
		questions = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"user_id":            userID,
		"created_at":         createdAt,
		"duration":           "15 min",
		"questions_answered": len(questions),
		"average_score":      average,
		"status":             "completed",
		"questions":          questions,
	}
}

// QuestionRecord returns one element of a session row's questions array.
func QuestionRecord(question, answer string, score float64, feedback string) map[string]interface{} {
	return map[string]interface{}{
		"question": question,
		"answer":   answer,
		"score":    score,
		"feedback": feedback,
	}
}

// TeamRow returns a team_members row.
func TeamRow(name, role string, order int) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"role":          role,
		"bio":           name + " builds things.",
		"display_order": order,
	}
}
