// Package state provides shared state information for use by workers and the master.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SceneKey returns a digest identifying the scene rooted at root.
// Equal trees have equal keys in every process, so a worker can reuse a scene it has already compiled.
// Scenes holding NaN or infinite numbers have no key.
func SceneKey(root *SceneNode) (string, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// relativePath takes the path to some file (original), and prepends that path
// (excluding the file at the end of the path) to another (other) path.
func relativePath(original, other string) string {
	return strings.Join([]string{strings.TrimRightFunc(original, func(ch rune) bool { return ch != '/' && ch != '\\' }), strings.TrimLeft(other, "/\\")}, "")
}
