package upload

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DeriveKey builds the object key "{username}/{stem}_{6hex}{suffix}".
// The random hex suffix makes keys distinct even when users upload
// files sharing a name; the username prefix namespaces keys per user.
func DeriveKey(username, filename string) string {
	base := path.Base(filename)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	rand := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("%s/%s_%s%s", username, stem, rand, ext)
}
