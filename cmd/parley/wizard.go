package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/parley-cli/parley/pkg/config"
)

// generateConfig writes the config file. Flag-supplied values seed the store
// first, so a fully specified invocation never prompts; only settings still
// unset after that are asked for with a huh form.
func generateConfig(store *config.Store, ov config.Overrides) error {
	if err := seedFromFlags(store, ov); err != nil {
		return err
	}

	if err := promptCore(store); err != nil {
		return err
	}

	modelType, err := store.Get(config.KeyModelType)
	if err != nil {
		return err
	}

	if err := promptBackendSettings(store, modelType); err != nil {
		return err
	}

	if err := store.Save(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", store.Path())

	return nil
}

// seedFromFlags applies the flag-supplied settings to the store. Flags are
// the highest-precedence source, so the wizard never asks for a value the
// invocation already gave.
func seedFromFlags(store *config.Store, ov config.Overrides) error {
	systemRef := ov.System
	if ov.SystemFile != "" {
		systemRef = ov.SystemFile
	}

	taskRef := ov.Task
	if ov.TaskFile != "" {
		taskRef = ov.TaskFile
	}

	flagged := map[string]string{
		config.KeyModel:        ov.Model,
		config.KeyModelType:    ov.ModelType,
		config.KeySystemPrompt: systemRef,
		config.KeyTask:         taskRef,
		config.KeyOutputFile:   ov.OutputFile,
		config.KeyFolderExt:    ov.Ext,
	}

	for key, value := range flagged {
		if value == "" {
			continue
		}
		if err := store.Set(key, value); err != nil {
			return err
		}
	}

	return nil
}

// promptCore asks for the model type and model, skipping whichever is
// already set.
func promptCore(store *config.Store) error {
	needType := !store.Has(config.KeyModelType)
	needModel := !store.Has(config.KeyModel)
	if !needType && !needModel {
		return nil
	}

	modelType, err := store.Get(config.KeyModelType)
	if err != nil {
		return err
	}
	model, err := store.Get(config.KeyModel)
	if err != nil {
		return err
	}

	var fields []huh.Field
	if needType {
		fields = append(fields, huh.NewSelect[string]().
			Title("Model type").
			Options(huh.NewOptions(config.ModelTypes()...)...).
			Value(&modelType))
	}
	if needModel {
		fields = append(fields, huh.NewInput().
			Title("Model").
			Description("Model identifier passed to the backend").
			Value(&model))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	if err := store.Set(config.KeyModelType, modelType); err != nil {
		return err
	}

	return store.Set(config.KeyModel, model)
}

// promptBackendSettings asks for the connection settings relevant to the
// chosen model type, skipping any already set.
func promptBackendSettings(store *config.Store, modelType string) error {
	prompt := func(key, title, description string) error {
		if store.Has(key) {
			return nil
		}

		value, err := store.Get(key)
		if err != nil {
			return err
		}

		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title(title).Description(description).Value(&value),
		)).Run(); err != nil {
			return err
		}

		return store.Set(key, value)
	}

	switch modelType {
	case config.TypeServer:
		return prompt(config.KeyServerHost, "Server host",
			"Base URL of the model server")
	case config.TypeLibrary:
		return prompt(config.KeyLibraryHost, "Library host",
			"Base URL of the library runtime's serving endpoint")
	case config.TypeGGUF:
		if err := prompt(config.KeyGGUFPath, "Model file",
			"Path to the quantized model file"); err != nil {
			return err
		}
		return prompt(config.KeyGGUFRunner, "Runner binary",
			"Binary used to run the model file")
	default:
		return nil
	}
}
