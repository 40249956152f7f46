package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirari/uploader/internal/model"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		name string
		old  model.Privacy
		new  model.Privacy
		want error
	}{
		{"first publish", model.PrivacyUnpublished, model.PrivacyPublic, nil},
		{"draft publish", model.PrivacyDraft, model.PrivacyPublic, nil},
		{"unpublished to draft", model.PrivacyUnpublished, model.PrivacyDraft, nil},
		{"hide public post", model.PrivacyPublic, model.PrivacyPrivate, nil},
		{"unlist public post", model.PrivacyPublic, model.PrivacyUnlisted, nil},

		{"back to unpublished", model.PrivacyPublic, model.PrivacyUnpublished, model.ErrUnpublishForbidden},
		{"same privacy", model.PrivacyPublic, model.PrivacyPublic, model.ErrSamePrivacy},
		{"same draft", model.PrivacyDraft, model.PrivacyDraft, model.ErrSamePrivacy},
		{"published to draft", model.PrivacyPublic, model.PrivacyDraft, model.ErrDraftFromPublished},
		{"private to draft", model.PrivacyPrivate, model.PrivacyDraft, model.ErrDraftFromPublished},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTransition(tc.old, tc.new)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestMetadataPatchEmpty(t *testing.T) {
	assert.True(t, MetadataPatch{}.Empty())

	title := "t"
	assert.False(t, MetadataPatch{Title: &title}.Empty())

	privacy := model.PrivacyPublic
	assert.False(t, MetadataPatch{Privacy: &privacy}.Empty())
}

func TestNullable(t *testing.T) {
	// Empty strings clear the column to NULL.
	assert.Nil(t, nullable(""))
	assert.Equal(t, "kept", nullable("kept"))
}
