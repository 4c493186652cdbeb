package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danesh-portal/danesh/storage/model"
)

var importCmd = &cobra.Command{
	Use:                "import",
	Short:              "Import JSON exports of the legacy portal",
	PersistentPreRunE:  openStorage,
	PersistentPostRunE: closeStorage,
}

var importUsersCmd = &cobra.Command{
	Use:   "users <file.json>",
	Short: "Import accounts with their bcrypt password hashes",
	Long: `Import accounts from a JSON array. Password hashes are kept as they are
and upgraded to argon2id on the first successful login. Existing usernames
are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		res, err := importUsers(f, warehouse.UsersStorage())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

var importContentCmd = &cobra.Command{
	Use:   "content <resource> <file.json>",
	Short: "Import content items of one resource",
	Long:  "Import content items from a JSON array. Resources: " + strings.Join(contentResources(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return errors.WithStack(err)
		}
		res, err := importContent(backends, args[0], data)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	importCmd.AddCommand(importUsersCmd, importContentCmd)
}

// importResult summarizes an import
type importResult struct {
	Imported int
	Skipped  int
}

func (r importResult) String() string {
	return fmt.Sprintf("imported %d, skipped %d", r.Imported, r.Skipped)
}

// legacyUser is an account in the legacy export
type legacyUser struct {
	Username         string  `json:"username"`
	PasswordHash     string  `json:"password"`
	Name             string  `json:"name"`
	Email            *string `json:"email"`
	Role             string  `json:"role"`
	SubscriptionTier string  `json:"subscription_tier"`
}

// userImporter is implemented by storage.UsersStorage
type userImporter interface {
	Import(u model.User) (*model.User, error)
}

func importUsers(r io.Reader, users userImporter) (importResult, error) {
	var legacy []legacyUser
	if err := json.NewDecoder(r).Decode(&legacy); err != nil {
		return importResult{}, errors.Wrap(err, "could not parse users export")
	}
	var res importResult
	for _, l := range legacy {
		_, err := users.Import(
			model.User{
				Username:         l.Username,
				PasswordHash:     l.PasswordHash,
				Name:             l.Name,
				Email:            l.Email,
				Role:             model.Role(l.Role),
				SubscriptionTier: model.SubscriptionTier(l.SubscriptionTier),
			},
		)
		if err != nil {
			var exists model.AlreadyExistsError
			var invalid model.ValidationError
			if errors.As(err, &exists) || errors.As(err, &invalid) {
				log.WithError(err).WithField("username", l.Username).Warn("skipping user")
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Imported++
	}
	return res, nil
}

type contentImporter func(data []byte) (importResult, error)

func importItems[T any](store model.ContentStore[T]) contentImporter {
	return func(data []byte) (importResult, error) {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return importResult{}, errors.Wrap(err, "could not parse content export")
		}
		var res importResult
		for i := range items {
			if err := store.Create(&items[i]); err != nil {
				var exists model.AlreadyExistsError
				var invalid model.ValidationError
				if errors.As(err, &exists) || errors.As(err, &invalid) {
					log.WithError(err).WithField("index", i).Warn("skipping item")
					res.Skipped++
					continue
				}
				return res, err
			}
			res.Imported++
		}
		return res, nil
	}
}

func contentImporters(b model.Backends) map[string]contentImporter {
	return map[string]contentImporter{
		"courses":            importItems(b.Courses),
		"workshops":          importItems(b.Workshops),
		"webinars":           importItems(b.Webinars),
		"magazines":          importItems(b.Magazines),
		"articles":           importItems(b.Articles),
		"documents":          importItems(b.Documents),
		"media-library":      importItems(b.Media),
		"slides":             importItems(b.Slides),
		"quick-access":       importItems(b.QuickAccess),
		"educational-videos": importItems(b.EducationalVideos),
	}
}

func contentResources() []string {
	var names []string
	for name := range contentImporters(model.Backends{}) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func importContent(b model.Backends, resource string, data []byte) (importResult, error) {
	importer, ok := contentImporters(b)[resource]
	if !ok {
		return importResult{}, errors.Errorf("unknown resource '%s'", resource)
	}
	return importer(data)
}
