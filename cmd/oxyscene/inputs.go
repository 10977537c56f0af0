package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/description"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

var placeholderColour = [3]float32{0.8, 0.8, 0.8}

// sceneInputs is everything read from disk for one build of a scene.
type sceneInputs struct {
	desc   *description.Description
	models map[string]model.Model
}

// readInputs parses the scene file and loads the model manifest. Models are read fresh
// on every call because a scene drops their local data after upload.
func (o *rootOptions) readInputs(scenePath string) (*sceneInputs, error) {
	desc, err := description.ParseFile(scenePath)
	if err != nil {
		return nil, err
	}

	l := loader.NewLoader(loader.WithLogger(o.log))
	if o.models != "" {
		if _, err := l.LoadManifest(o.models); err != nil {
			return nil, fmt.Errorf("failed to load models: %w", err)
		}
	}
	if o.placeholders {
		for _, a := range desc.Actors {
			if a.Model == "" || l.Get(a.Model) != nil {
				continue
			}
			cube, err := loader.Cube(a.Model, 1, placeholderColour)
			if err != nil {
				return nil, err
			}
			if err := l.Add(cube); err != nil {
				return nil, err
			}
		}
	}

	return &sceneInputs{desc: desc, models: l.Models()}, nil
}

func (o *rootOptions) newScene(name string, dev device.Device) scene.SceneMan {
	return scene.NewSceneMan(name, dev,
		scene.WithLogger(o.log),
		scene.WithUpdateWorkers(o.workers),
	)
}
