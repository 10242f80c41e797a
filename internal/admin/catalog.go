package admin

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/market-briefing/internal/models"
)

// SaveTopic creates a topic (editID == "") or replaces the topic editID.
// The category must exist. Renaming the id rewrites Settings references
// but never touches history records.
func (s *Service) SaveTopic(ctx context.Context, editID string, topic models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic.ID = strings.TrimSpace(topic.ID)
	topic.Name = strings.TrimSpace(topic.Name)
	topic.PromptHint = strings.TrimSpace(topic.PromptHint)
	if topic.Name == "" || topic.ID == "" {
		return fmt.Errorf("%w: topic name and key", ErrRequired)
	}

	renamed := false
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if _, ok := admin.FindCategory(topic.CategoryID); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, topic.CategoryID)
		}
		if editID == "" {
			if _, exists := admin.FindTopic(topic.ID); exists {
				return fmt.Errorf("%w: topic %q", ErrDuplicateID, topic.ID)
			}
			admin.Topics = append(admin.Topics, topic)
			return nil
		}

		existing, ok := admin.FindTopic(editID)
		if !ok {
			return fmt.Errorf("%w: topic %q", ErrNotFound, editID)
		}
		if topic.ID != editID {
			if _, exists := admin.FindTopic(topic.ID); exists {
				return fmt.Errorf("%w: topic %q", ErrDuplicateID, topic.ID)
			}
			renamed = true
		}
		*existing = topic
		return nil
	})
	if err != nil {
		return err
	}

	if renamed {
		err = s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
			return replaceID(settings.EnabledTopicIDs, editID, topic.ID), nil
		})
		if err != nil {
			return err
		}
		s.log.Info().Str("from", editID).Str("to", topic.ID).Msg("Topic id renamed")
	}
	return nil
}

// DeleteTopic removes a topic and drops it from the enabled set
func (s *Service) DeleteTopic(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.Topics = slices.DeleteFunc(admin.Topics, func(t models.Topic) bool { return t.ID == id })
		return nil
	})
	if err != nil {
		return err
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		return removeID(&settings.EnabledTopicIDs, id), nil
	})
}

// SaveCategory creates a category keyed by Slug(name), or updates the name,
// sort order and description of editID.
func (s *Service) SaveCategory(ctx context.Context, editID string, cat models.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Name == "" {
		return "", fmt.Errorf("%w: category name", ErrRequired)
	}
	if cat.SortOrder == 0 {
		cat.SortOrder = 1
	}

	id := editID
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if editID != "" {
			existing, ok := admin.FindCategory(editID)
			if !ok {
				return fmt.Errorf("%w: category %q", ErrNotFound, editID)
			}
			existing.Name = cat.Name
			existing.SortOrder = cat.SortOrder
			if cat.Description != nil {
				existing.Description = cat.Description
			}
			return nil
		}

		id = Slug(cat.Name)
		if id == "" {
			return fmt.Errorf("%w: category name has no usable characters", ErrRequired)
		}
		if _, exists := admin.FindCategory(id); exists {
			return fmt.Errorf("%w: category %q", ErrDuplicateID, id)
		}
		cat.ID = id
		if cat.Description == nil {
			d := models.CategoryDescription(id, cat.Name)
			cat.Description = &d
		}
		admin.Categories = append(admin.Categories, cat)
		return nil
	})
	return id, err
}

// DeleteCategory removes a category no topic references
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if n := admin.TopicsInCategory(id); n > 0 {
			return fmt.Errorf("%w: %d topic(s) in %q, remove or reassign them first", ErrCategoryInUse, n, id)
		}
		admin.Categories = slices.DeleteFunc(admin.Categories, func(c models.Category) bool { return c.ID == id })
		return nil
	})
}

// SaveCoverageType creates a coverage type keyed by Slug(name), or updates editID
func (s *Service) SaveCoverageType(ctx context.Context, editID string, ct models.CoverageType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ct.Name = strings.TrimSpace(ct.Name)
	ct.PromptInstruction = strings.TrimSpace(ct.PromptInstruction)
	if ct.Name == "" || ct.PromptInstruction == "" {
		return "", fmt.Errorf("%w: coverage name and prompt", ErrRequired)
	}

	id := editID
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if editID != "" {
			existing, ok := admin.FindCoverageType(editID)
			if !ok {
				return fmt.Errorf("%w: coverage type %q", ErrNotFound, editID)
			}
			existing.Name = ct.Name
			existing.PromptInstruction = ct.PromptInstruction
			return nil
		}

		id = Slug(ct.Name)
		if id == "" {
			return fmt.Errorf("%w: coverage name has no usable characters", ErrRequired)
		}
		if _, exists := admin.FindCoverageType(id); exists {
			return fmt.Errorf("%w: coverage type %q", ErrDuplicateID, id)
		}
		ct.ID = id
		admin.CoverageTypes = append(admin.CoverageTypes, ct)
		return nil
	})
	return id, err
}

// DeleteCoverageType removes a coverage type and drops it from the enabled set
func (s *Service) DeleteCoverageType(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.CoverageTypes = slices.DeleteFunc(admin.CoverageTypes, func(c models.CoverageType) bool { return c.ID == id })
		return nil
	})
	if err != nil {
		return err
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		return removeID(&settings.EnabledCoverageIDs, id), nil
	})
}

// SaveStyle creates a style keyed by Slug(name), or updates editID.
// Zero targets default to 500 words and 1000 tokens.
func (s *Service) SaveStyle(ctx context.Context, editID string, style models.Style) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	style.Name = strings.TrimSpace(style.Name)
	style.Description = strings.TrimSpace(style.Description)
	if style.Name == "" {
		return "", fmt.Errorf("%w: style name", ErrRequired)
	}
	if style.WordTarget <= 0 {
		style.WordTarget = 500
	}
	if style.MaxTokens <= 0 {
		style.MaxTokens = 1000
	}

	id := editID
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if editID != "" {
			existing, ok := admin.FindStyle(editID)
			if !ok {
				return fmt.Errorf("%w: style %q", ErrNotFound, editID)
			}
			style.ID = editID
			*existing = style
			return nil
		}

		id = Slug(style.Name)
		if id == "" {
			return fmt.Errorf("%w: style name has no usable characters", ErrRequired)
		}
		if _, exists := admin.FindStyle(id); exists {
			return fmt.Errorf("%w: style %q", ErrDuplicateID, id)
		}
		style.ID = id
		admin.Styles = append(admin.Styles, style)
		return nil
	})
	return id, err
}

// DeleteStyle removes a style. If it was active, the first remaining style
// (or the factory default id) becomes active.
func (s *Service) DeleteStyle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fallback := models.DefaultStyleID
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.Styles = slices.DeleteFunc(admin.Styles, func(st models.Style) bool { return st.ID == id })
		if len(admin.Styles) > 0 {
			fallback = admin.Styles[0].ID
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		if settings.ActiveStyleID != id {
			return false, nil
		}
		settings.ActiveStyleID = fallback
		return true, nil
	})
}

// SaveModel creates a model or replaces editID. An empty provider is inferred
// from the id. Renaming the default model updates Settings.
func (s *Service) SaveModel(ctx context.Context, editID string, model models.ModelSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	model.ID = strings.TrimSpace(model.ID)
	model.DisplayName = strings.TrimSpace(model.DisplayName)
	model.CostNote = strings.TrimSpace(model.CostNote)
	if model.ID == "" || model.DisplayName == "" {
		return fmt.Errorf("%w: model id and name", ErrRequired)
	}
	if model.Provider == "" {
		model.Provider = models.InferProvider(model.ID)
	}

	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		if editID == "" {
			if _, exists := admin.FindModel(model.ID); exists {
				return fmt.Errorf("%w: model %q", ErrDuplicateID, model.ID)
			}
			admin.Models = append(admin.Models, model)
			return nil
		}

		existing, ok := admin.FindModel(editID)
		if !ok {
			return fmt.Errorf("%w: model %q", ErrNotFound, editID)
		}
		if model.ID != editID {
			if _, exists := admin.FindModel(model.ID); exists {
				return fmt.Errorf("%w: model %q", ErrDuplicateID, model.ID)
			}
		}
		*existing = model
		return nil
	})
	if err != nil || editID == "" || editID == model.ID {
		return err
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		if settings.DefaultModelID != editID {
			return false, nil
		}
		settings.DefaultModelID = model.ID
		return true, nil
	})
}

// DeleteModel removes a model. If it was the default, the first remaining
// model becomes the default.
func (s *Service) DeleteModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fallback := ""
	err := s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.Models = slices.DeleteFunc(admin.Models, func(m models.ModelSpec) bool { return m.ID == id })
		if len(admin.Models) > 0 {
			fallback = admin.Models[0].ID
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.updateSettings(ctx, func(settings *models.Settings) (bool, error) {
		if settings.DefaultModelID != id {
			return false, nil
		}
		settings.DefaultModelID = fallback
		return true, nil
	})
}

// SetSystemPrompt replaces the system prompt
func (s *Service) SetSystemPrompt(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.SystemPrompt = text
		return nil
	})
}

// SetUserPromptTemplate replaces the user prompt template
func (s *Service) SetUserPromptTemplate(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.UserPromptTemplate = text
		return nil
	})
}

// ResetSystemPrompt restores the system prompt from the stored defaults
func (s *Service) ResetSystemPrompt(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.SystemPrompt = promptDefaults(admin).SystemPrompt
		return nil
	})
}

// ResetUserPromptTemplate restores the template from the stored defaults
func (s *Service) ResetUserPromptTemplate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAdmin(ctx, func(admin *models.AdminSchema) error {
		admin.UserPromptTemplate = promptDefaults(admin).UserPromptTemplate
		return nil
	})
}

func promptDefaults(admin *models.AdminSchema) *models.PromptDefaults {
	if admin.Defaults == nil {
		return models.FactoryPromptDefaults()
	}
	return admin.Defaults
}

// replaceID swaps from for to in ids, reporting whether anything changed
func replaceID(ids []string, from, to string) bool {
	i := slices.Index(ids, from)
	if i < 0 {
		return false
	}
	ids[i] = to
	return true
}

// removeID deletes id from *ids, reporting whether anything changed
func removeID(ids *[]string, id string) bool {
	before := len(*ids)
	*ids = slices.DeleteFunc(*ids, func(s string) bool { return s == id })
	return len(*ids) != before
}
