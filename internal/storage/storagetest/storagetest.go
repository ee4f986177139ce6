// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages run it from their own tests:
//
//	suite.Run(t, &storagetest.Suite{NewStore: func() storage.Storage { ... }})
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

type Suite struct {
	suite.Suite

	// NewStore is called before every test. The store is emptied with
	// DeleteAll before use.
	NewStore func() storage.Storage

	store storage.Storage
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStore, "storagetest.Suite needs NewStore")
	s.store = s.NewStore()
	s.Require().NoError(s.store.DeleteAll(context.Background()))
}

func (s *Suite) TestSaveAssignsID() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, types.Student{Name: "Anna", Age: 22, Gender: "Female"})
	s.Require().NoError(err)
	s.NotEmpty(saved.ID)

	found, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal("Anna", found.Name)
	s.Equal(22, found.Age)
	s.Equal("Female", found.Gender)
	s.Nil(found.CreatedAt)
	s.Nil(found.UpdateHistory)
}

func (s *Suite) TestSaveKeepsGivenID() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, types.Student{ID: "2", Name: "Victoria", Age: 17, Gender: "Female"})
	s.Require().NoError(err)
	s.Equal("2", saved.ID)

	found, err := s.store.FindByID(ctx, "2")
	s.Require().NoError(err)
	s.Equal("Victoria", found.Name)
}

func (s *Suite) TestSaveRoundTripsAuditFields() {
	ctx := context.Background()
	createdAt := time.Date(2025, 5, 4, 17, 35, 0, 123456789, time.UTC)
	history := []time.Time{
		createdAt.Add(time.Minute),
		createdAt.Add(2 * time.Minute),
	}

	saved, err := s.store.Save(ctx, types.Student{
		Name: "Bill", Age: 23, Gender: "Male",
		CreatedAt:     &createdAt,
		UpdateHistory: history,
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.CreatedAt)
	s.True(createdAt.Equal(*found.CreatedAt))
	s.Require().Len(found.UpdateHistory, 2)
	for i := range history {
		s.True(history[i].Equal(found.UpdateHistory[i]), "history[%d]", i)
	}
}

func (s *Suite) TestSaveKeepsEmptyHistoryEmpty() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, types.Student{Name: "Fresh", Age: 21, Gender: "Female", UpdateHistory: []time.Time{}})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.NotNil(found.UpdateHistory)
	s.Empty(found.UpdateHistory)
}

func (s *Suite) TestSaveReplacesByID() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, types.Student{Name: "Tom", Age: 25, Gender: "Male"})
	s.Require().NoError(err)

	saved.Name = "Tommy"
	saved.Gender = "Other"
	_, err = s.store.Save(ctx, saved)
	s.Require().NoError(err)

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Tommy", all[0].Name)

	exists, err := s.store.ExistsByGender(ctx, "Male")
	s.Require().NoError(err)
	s.False(exists, "gender index must follow the replacement")

	exists, err = s.store.ExistsByGender(ctx, "Other")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestFindByIDMissing() {
	_, err := s.store.FindByID(context.Background(), "nonexistent-id")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestFindAllEmpty() {
	all, err := s.store.FindAll(context.Background())
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)
}

func (s *Suite) TestFindAll() {
	ctx := context.Background()
	for _, name := range []string{"Andrew", "Victoria", "Borys"} {
		_, err := s.store.Save(ctx, types.Student{Name: name, Age: 17, Gender: "Male"})
		s.Require().NoError(err)
	}

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	names := make([]string, 0, len(all))
	for _, st := range all {
		names = append(names, st.Name)
	}
	s.ElementsMatch([]string{"Andrew", "Victoria", "Borys"}, names)
}

func (s *Suite) TestDeleteByID() {
	ctx := context.Background()

	saved, err := s.store.Save(ctx, types.Student{Name: "DeleteMe", Age: 19, Gender: "Male"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteByID(ctx, saved.ID))

	_, err = s.store.FindByID(ctx, saved.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	exists, err := s.store.ExistsByGender(ctx, "Male")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestDeleteByIDMissingIsNoop() {
	ctx := context.Background()

	_, err := s.store.Save(ctx, types.Student{Name: "Keep", Age: 30, Gender: "Female"})
	s.Require().NoError(err)

	s.NoError(s.store.DeleteByID(ctx, "nonexistent"))

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *Suite) TestDeleteAll() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.store.Save(ctx, types.Student{Name: "Student", Age: 18 + i, Gender: "Male"})
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.DeleteAll(ctx))

	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Empty(all)

	exists, err := s.store.ExistsByGender(ctx, "Male")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestExistsByGender() {
	ctx := context.Background()

	exists, err := s.store.ExistsByGender(ctx, "Female")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.store.Save(ctx, types.Student{Name: "Olga", Age: 22, Gender: "Female"})
	s.Require().NoError(err)

	exists, err = s.store.ExistsByGender(ctx, "Female")
	s.Require().NoError(err)
	s.True(exists)

	// Exact match only.
	exists, err = s.store.ExistsByGender(ctx, "female")
	s.Require().NoError(err)
	s.False(exists)
}
