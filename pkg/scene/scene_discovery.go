package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownScene is returned when a name matches neither a preset nor a scene file
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`                 // Preset name or file path accepted by Create
	DisplayName string `json:"displayName"`        // UI display name
	Description string `json:"description"`        // Optional description
	Type        string `json:"type"`               // "builtin" or "json"
	FilePath    string `json:"filePath,omitempty"` // Path to the scene file (json type only)
}

type preset struct {
	info   SceneInfo
	create func(seed int64) *Scene
}

var presets = []preset{
	{
		info: SceneInfo{
			ID:          "showcase",
			DisplayName: "Showcase",
			Description: "Glass, diffuse and metal spheres with a purple glow",
			Type:        "builtin",
		},
		create: func(seed int64) *Scene { return NewShowcaseScene() },
	},
	{
		info: SceneInfo{
			ID:          "random",
			DisplayName: "Random Spheres",
			Description: "Field of small random spheres around three large ones",
			Type:        "builtin",
		},
		create: NewRandomScene,
	},
	{
		info: SceneInfo{
			ID:          "grid",
			DisplayName: "Sphere Grid",
			Description: "Grid of colored metal spheres under a warm light",
			Type:        "builtin",
		},
		create: func(seed int64) *Scene { return NewSphereGridScene() },
	},
	{
		info: SceneInfo{
			ID:          "empty",
			DisplayName: "Empty",
			Description: "Sky gradient only",
			Type:        "builtin",
		},
		create: func(seed int64) *Scene { return NewEmptyScene() },
	},
}

// Names returns the preset scene names in display order
func Names() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.info.ID
	}
	return names
}

// Create resolves a preset name or a .json scene path and builds its acceleration structure.
// The seed drives both random scene generation and the BVH split axes.
func Create(name string, seed int64) (*Scene, error) {
	var s *Scene
	for _, p := range presets {
		if p.info.ID == name {
			s = p.create(seed)
			break
		}
	}

	if s == nil {
		if !strings.EqualFold(filepath.Ext(name), ".json") {
			return nil, fmt.Errorf("%q (presets: %s): %w", name, strings.Join(Names(), ", "), ErrUnknownScene)
		}
		loaded, err := Load(name)
		if err != nil {
			return nil, err
		}
		s = loaded
	}

	if err := s.BuildAccelerationStructure(seed); err != nil {
		return nil, err
	}
	return s, nil
}

// ListJSONScenes scans dir for .json scene files. A missing directory yields an empty list.
func ListJSONScenes(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ParseJSONMetadata(filePath)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseJSONMetadata reads the name and description of a scene file.
// The file name provides the display name when the scene has none.
func ParseJSONMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          filePath,
		DisplayName: titleCase(nameWithoutExt),
		Type:        "json",
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, fmt.Errorf("read scene metadata: %w", err)
	}

	var header struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return info, fmt.Errorf("scene %s: %w", filePath, err)
	}

	if header.Name != "" {
		info.DisplayName = header.Name
	}
	info.Description = header.Description
	return info, nil
}

// ListAllScenes returns the presets followed by the scene files found in dir
func ListAllScenes(dir string) ([]SceneInfo, error) {
	scenes := make([]SceneInfo, 0, len(presets))
	for _, p := range presets {
		scenes = append(scenes, p.info)
	}

	jsonScenes, err := ListJSONScenes(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scene files: %w", err)
	}

	return append(scenes, jsonScenes...), nil
}

// titleCase converts a filename-style string to title case
// e.g., "glass-row" -> "Glass Row"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
