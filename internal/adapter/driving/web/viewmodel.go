package web

import (
	"net/url"
	"strconv"
	"time"

	vm "github.com/ericfisherdev/storeadmin/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

// toTabViewModels converts the catalog's sections into navigation tabs.
func toTabViewModels(sections []catalog.Section, active string) []vm.SectionTabViewModel {
	tabs := make([]vm.SectionTabViewModel, 0, len(sections))
	for _, s := range sections {
		tabs = append(tabs, vm.SectionTabViewModel{
			Name:      s.Name,
			Title:     s.Title,
			Icon:      s.Icon,
			Path:      settingsPath(s.Name),
			Active:    s.Name == active,
			Sensitive: s.Sensitive,
		})
	}
	return tabs
}

// toFieldViewModels merges catalog fields with the values to display. values
// holds either the stored settings or, after a failed submission, the
// submitted input.
func toFieldViewModels(fields []catalog.Field, values map[string]string, stored map[string]string, errs application.FieldErrors) []vm.FieldViewModel {
	out := make([]vm.FieldViewModel, 0, len(fields))
	for _, f := range fields {
		value := values[f.Key]
		fv := vm.FieldViewModel{
			Key:         f.Key,
			Label:       f.Label,
			Control:     controlFor(f.Type),
			Value:       value,
			Required:    f.Required,
			Placeholder: f.Placeholder,
			HelpHTML:    RenderMarkdown(f.Description),
			Step:        f.Step,
			MaxLength:   f.MaxLength,
			Suffix:      f.Suffix,
			Error:       errs[f.Key],
		}
		if f.Min != nil {
			fv.Min = strconv.FormatFloat(*f.Min, 'f', -1, 64)
		}
		if f.Max != nil {
			fv.Max = strconv.FormatFloat(*f.Max, 'f', -1, 64)
		}

		switch f.Type {
		case model.FieldTypePassword:
			fv.Value = ""
			fv.IsSet = stored[f.Key] != ""
			if fv.IsSet {
				fv.Required = false
			}
		case model.FieldTypeBoolean:
			fv.Checked = value == "1"
		case model.FieldTypeSelect, model.FieldTypeRadio:
			for _, o := range f.Options {
				fv.Options = append(fv.Options, vm.OptionViewModel{
					Value:    o.Value,
					Label:    o.Label,
					Selected: o.Value == value,
				})
			}
		}

		if f.Confirm != "" {
			fv.ConfirmKey = f.Confirm
			fv.ConfirmLabel = "Confirm " + f.Label
			fv.ConfirmError = errs[f.Confirm]
		}

		out = append(out, fv)
	}
	return out
}

func toFlashViewModel(f *model.Flash) *vm.FlashViewModel {
	if f == nil {
		return nil
	}
	return &vm.FlashViewModel{Kind: string(f.Kind), Message: f.Message}
}

// gateExpiry formats when an open gate closes.
func gateExpiry(gate model.AccessGate, window time.Duration) string {
	if !gate.Verified || gate.VerifiedAt == nil {
		return ""
	}
	return gate.VerifiedAt.Add(window).Local().Format("15:04")
}

func controlFor(t model.FieldType) string {
	if t == model.FieldTypeBoolean {
		return "checkbox"
	}
	return string(t)
}

func settingsPath(section string) string {
	return "/settings?section=" + url.QueryEscape(section)
}
