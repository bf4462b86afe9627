package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/devcode/internal/model"
)

// PackageFile is the package metadata file read by DetectPlaceholder.
const PackageFile = "package.json"

// DetectPlaceholder returns the placeholder name of the project at root.
//
// The project must have a package.json whose "private" field is exactly
// true and whose "name" is a non-empty string. A missing file fails with
// model.ErrPackageMetadataNotFound; anything else that disqualifies the
// project fails with model.ErrNotADevelopmentProject. Both are wrapped in a
// *model.CLIError. Malformed JSON is a plain error. Nothing is written.
func DetectPlaceholder(root string) (string, error) {
	path := filepath.Join(root, PackageFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", model.WrapCLIError(model.ExitPackageMetadataNotFound,
				fmt.Sprintf("no %s in %s", PackageFile, root), model.ErrPackageMetadataNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var meta struct {
		Name    json.RawMessage `json:"name"`
		Private json.RawMessage `json:"private"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &meta); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var private bool
	if len(meta.Private) == 0 || json.Unmarshal(meta.Private, &private) != nil || !private {
		return "", model.WrapCLIError(model.ExitNotADevelopmentProject,
			fmt.Sprintf("%s is not marked \"private\": true; the project looks released already", path),
			model.ErrNotADevelopmentProject)
	}

	var name string
	if len(meta.Name) == 0 || json.Unmarshal(meta.Name, &name) != nil || name == "" {
		return "", model.WrapCLIError(model.ExitNotADevelopmentProject,
			fmt.Sprintf("%s has no package name", path), model.ErrNotADevelopmentProject)
	}
	return name, nil
}
