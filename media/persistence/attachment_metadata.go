package persistence

import (
	"path"
	"sort"

	"github.com/dfryer1193/mediasweep/shared/phpserial"
)

const attachmentMetadataKey = "_wp_attachment_metadata"

// derivedFiles returns the upload-relative paths of the generated files listed in the serialized
// _wp_attachment_metadata array, excluding mainFile itself. Each entry of "sizes" names a file next
// to the main file, as does "original_image" for images WordPress scaled down on upload.
func derivedFiles(mainFile string, metadata string) ([]string, error) {
	if mainFile == "" || metadata == "" {
		return nil, nil
	}

	meta, err := phpserial.DecodeArray(metadata)
	if err != nil {
		return nil, err
	}

	dir := path.Dir(mainFile)
	seen := map[string]struct{}{mainFile: {}}
	var files []string

	add := func(name string) {
		if name == "" {
			return
		}
		p := path.Join(dir, path.Base(name))
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	if sizes, ok := phpserial.Array(meta, "sizes"); ok {
		for _, size := range sizes {
			if entry, ok := size.(map[any]any); ok {
				name, _ := phpserial.String(entry, "file")
				add(name)
			}
		}
	}
	if original, ok := phpserial.String(meta, "original_image"); ok {
		add(original)
	}

	sort.Strings(files)
	return files, nil
}
