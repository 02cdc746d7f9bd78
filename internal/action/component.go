package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ravix/ada/internal/intent"
	"github.com/ravix/ada/internal/llm"
	"github.com/ravix/ada/internal/parse"
)

// ComponentFromImageHandler builds a Vue component matching an image, then
// runs an update pass over changes the user types into their editor. The
// image is taken from a path in the utterance, or the most recent image in
// the working directory.
type ComponentFromImageHandler struct {
	// editor overrides $EDITOR, for tests
	editor string
}

func NewComponentFromImageHandler() *ComponentFromImageHandler {
	return &ComponentFromImageHandler{}
}

func (h *ComponentFromImageHandler) Intent() intent.Intent { return intent.ComponentFromImage }

const componentInstructions = `You're a Senior Vue 3 developer. You build new Vue components using the Composition API with <script setup lang='ts'>.
Your current assignment is to build a new vue component that matches the image.
Return strictly the code for the Vue component including <template>, <script setup lang='ts'>, and <style> sections.
Use tailwind css to style the component.
Respond in this JSON format exclusively: {"vue_component": ""}`

type componentResponse struct {
	VueComponent string `json:"vue_component"`
}

var imagePathRe = regexp.MustCompile(`[\w./~-]+\.(?:png|jpe?g|webp|gif)`)

func (h *ComponentFromImageHandler) Handle(ctx context.Context, utterance string, history []llm.Turn, actx *Context) (string, error) {
	imagePath, err := h.findImage(utterance, actx)
	if err != nil {
		return "", err
	}

	raw, err := actx.Vision.GenerateVisionJSON(ctx, componentInstructions, utterance, imagePath)
	if err != nil {
		return "", err
	}
	var response componentResponse
	if err := parse.ExtractObject(raw, &response); err != nil {
		return "", err
	}
	if response.VueComponent == "" {
		return "", &parse.ParseError{Reason: "model produced no component", Raw: raw}
	}

	name, err := nameFile(ctx, actx, "You've just created the following Vue component. Name it; use the .vue extension.", response.VueComponent)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(name, ".vue") {
		name += ".vue"
	}

	if _, err := writeToWorkingDir(actx, name, response.VueComponent); err != nil {
		return "", err
	}

	changes, err := h.collectChanges(ctx)
	if err != nil {
		return "", err
	}
	if changes == "" {
		return actx.Feedback(ctx, fmt.Sprintf("I've created the component from %s and named it %s. No changes requested, so it's ready for use.", filepath.Base(imagePath), name)), nil
	}

	updated, err := h.updateComponent(ctx, actx, response.VueComponent, changes)
	if err != nil {
		return "", err
	}
	if _, err := writeToWorkingDir(actx, name, updated); err != nil {
		return "", err
	}
	return actx.Feedback(ctx, fmt.Sprintf("I've updated %s based on your feedback. What's next?", name)), nil
}

const updateComponentInstructions = `You're a Senior Vue 3 developer. You build new Vue components using the Composition API with <script setup lang='ts'>.
You've just created the VUE_COMPONENT. A change from your product manager has come in and you're now tasked with updating the component.
Make the updates to the VUE_COMPONENT based on the REQUESTED_CHANGES.
Return strictly the code for the Vue component including <template>, <script setup lang='ts'>, and <style> sections.
Use tailwind css to style the component.
Respond in this JSON format exclusively: {"vue_component": ""}`

// collectChanges opens an empty scratch file in the user's editor and
// returns whatever they typed. An empty buffer means no changes are wanted.
func (h *ComponentFromImageHandler) collectChanges(ctx context.Context) (string, error) {
	scratch, err := os.CreateTemp("", "ada-component-changes-*.md")
	if err != nil {
		return "", &HandlerError{Op: "collecting requested changes", Err: err}
	}
	scratch.Close()
	defer os.Remove(scratch.Name())

	if err := openInEditor(ctx, h.editor, scratch.Name()); err != nil {
		return "", &HandlerError{Op: "collecting requested changes", Err: err}
	}

	content, err := os.ReadFile(scratch.Name())
	if err != nil {
		return "", &HandlerError{Op: "collecting requested changes", Err: err}
	}
	return strings.TrimSpace(string(content)), nil
}

func (h *ComponentFromImageHandler) updateComponent(ctx context.Context, actx *Context, component string, changes string) (string, error) {
	prompt := fmt.Sprintf("REQUESTED_CHANGES:\n%s\n\nVUE_COMPONENT:\n%s", changes, component)
	raw, err := actx.JSON.GenerateJSON(ctx, updateComponentInstructions, prompt)
	if err != nil {
		return "", err
	}
	var response componentResponse
	if err := parse.ExtractObject(raw, &response); err != nil {
		return "", err
	}
	if response.VueComponent == "" {
		return "", &parse.ParseError{Reason: "model produced no updated component", Raw: raw}
	}
	return response.VueComponent, nil
}

// findImage resolves the source image: an explicit path in the utterance, or
// the newest image file in the working directory
func (h *ComponentFromImageHandler) findImage(utterance string, actx *Context) (string, error) {
	if m := imagePathRe.FindString(utterance); m != "" {
		if _, err := os.Stat(m); err == nil {
			return m, nil
		}
	}

	dir := actx.Settings.WorkingDirectory
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &HandlerError{Op: "finding image", Err: err}
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var images []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".webp", ".gif":
			info, err := entry.Info()
			if err != nil {
				continue
			}
			images = append(images, candidate{filepath.Join(dir, entry.Name()), info.ModTime().UnixNano()})
		}
	}
	if len(images) == 0 {
		return "", &HandlerError{Op: "finding image", Err: fmt.Errorf("no image found in %s", dir)}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].modTime > images[j].modTime })
	return images[0].path, nil
}
