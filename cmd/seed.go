package main

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wellmind/assessment-api/internal/model"
	"github.com/wellmind/assessment-api/internal/store"
)

var seedFile string

// seedData is the on-disk seed format: categories with their questions
// inline, professionals flat.
type seedData struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Questions   []struct {
			Text   string `yaml:"text"`
			Weight int    `yaml:"weight"`
			Active *bool  `yaml:"active"`
		} `yaml:"questions"`
	} `yaml:"categories"`
	Professionals []struct {
		FirstName      string   `yaml:"first_name"`
		LastName       string   `yaml:"last_name"`
		Specialization string   `yaml:"specialization"`
		Type           string   `yaml:"type"`
		Phone          string   `yaml:"phone"`
		Email          string   `yaml:"email"`
		Address        string   `yaml:"address"`
		Latitude       *float64 `yaml:"latitude"`
		Longitude      *float64 `yaml:"longitude"`
	} `yaml:"professionals"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories, questions and professionals from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(seedFile)
		if err != nil {
			return eris.Wrapf(err, "read seed file %s", seedFile)
		}
		var data seedData
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return eris.Wrapf(err, "parse seed file %s", seedFile)
		}

		st, err := newStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var categories, questions, professionals, skipped int
		for _, sc := range data.Categories {
			c := model.Category{Name: sc.Name, Description: sc.Description}
			err := st.CreateCategory(ctx, &c)
			if errors.Is(err, store.ErrConflict) {
				// Already seeded; skip the category and its questions.
				skipped++
				continue
			}
			if err != nil {
				return err
			}
			categories++

			for _, sq := range sc.Questions {
				active := true
				if sq.Active != nil {
					active = *sq.Active
				}
				q := model.Question{Text: sq.Text, Weight: sq.Weight, CategoryID: c.ID, Active: active}
				if err := st.CreateQuestion(ctx, &q); err != nil {
					return err
				}
				questions++
			}
		}

		for _, sp := range data.Professionals {
			p := model.Professional{
				FirstName:      sp.FirstName,
				LastName:       sp.LastName,
				Specialization: sp.Specialization,
				Type:           model.ProfessionalType(sp.Type),
				Phone:          sp.Phone,
				Email:          sp.Email,
				Address:        sp.Address,
				Latitude:       sp.Latitude,
				Longitude:      sp.Longitude,
			}
			if !p.Type.Valid() {
				return eris.Errorf("professional %s %s: invalid type %q", sp.FirstName, sp.LastName, sp.Type)
			}
			err := st.CreateProfessional(ctx, &p)
			switch {
			case errors.Is(err, store.ErrConflict):
				skipped++
			case err != nil:
				return err
			default:
				professionals++
			}
		}

		zap.L().Info("seed complete",
			zap.Int("categories", categories),
			zap.Int("questions", questions),
			zap.Int("professionals", professionals),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "seed file path")
	rootCmd.AddCommand(seedCmd)
}
