//go:build integration

package nominalroll_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sebexam/internal/nominalroll"
	"sebexam/pkg/testutil/containers"
)

// countingRegistry wraps another Registry and counts source lookups, so
// the tests can tell a cache hit from a read-through.
type countingRegistry struct {
	inner nominalroll.Registry
	loads atomic.Int32
}

func (c *countingRegistry) FindByNIN(ctx context.Context, nin string) (*nominalroll.CivilServant, error) {
	c.loads.Add(1)
	return c.inner.FindByNIN(ctx, nin)
}

func (c *countingRegistry) FindByServiceNumber(ctx context.Context, serviceNumber string) (*nominalroll.CivilServant, error) {
	c.loads.Add(1)
	return c.inner.FindByServiceNumber(ctx, serviceNumber)
}

type CachedRegistrySuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	source *countingRegistry
	cache  *nominalroll.CachedRegistry
}

func TestCachedRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedRegistrySuite))
}

func (s *CachedRegistrySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *CachedRegistrySuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.source = &countingRegistry{inner: nominalroll.NewFakeRegistry(nominalroll.CivilServant{
		NIN:                     "12345678901",
		StaffVerificationNumber: "SVN-0001",
		Surname:                 "Bello",
		FirstName:               "Chidi",
		GradeLevel:              "10",
	})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = nominalroll.NewCachedRegistry(s.source, s.redis.Client, time.Minute, logger)
}

func (s *CachedRegistrySuite) TestReadThroughCachesHits() {
	ctx := context.Background()

	servant, err := s.cache.FindByNIN(ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal("Bello", servant.Surname)
	s.Equal(int32(1), s.source.loads.Load())

	// Second lookup is served from Redis.
	servant, err = s.cache.FindByNIN(ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal("SVN-0001", servant.StaffVerificationNumber)
	s.Equal(int32(1), s.source.loads.Load())

	// The two identity keys cache independently.
	_, err = s.cache.FindByServiceNumber(ctx, "SVN-0001")
	s.Require().NoError(err)
	s.Equal(int32(2), s.source.loads.Load())
}

func (s *CachedRegistrySuite) TestMissesAreNotCached() {
	ctx := context.Background()

	_, err := s.cache.FindByNIN(ctx, "00000000000")
	s.Require().ErrorIs(err, nominalroll.ErrNotFound)
	_, err = s.cache.FindByNIN(ctx, "00000000000")
	s.Require().ErrorIs(err, nominalroll.ErrNotFound)
	s.Equal(int32(2), s.source.loads.Load())

	// Once the roll sync adds the person, the next lookup finds them.
	s.source.inner.(*nominalroll.FakeRegistry).Add(nominalroll.CivilServant{
		NIN:                     "00000000000",
		StaffVerificationNumber: "SVN-0002",
		Surname:                 "Yusuf",
		FirstName:               "Halima",
	})
	servant, err := s.cache.FindByNIN(ctx, "00000000000")
	s.Require().NoError(err)
	s.Equal("Yusuf", servant.Surname)
}

func (s *CachedRegistrySuite) TestCorruptEntryFallsThrough() {
	ctx := context.Background()

	err := s.redis.Client.Set(ctx, "nominalroll:nin:12345678901", "{not json", time.Minute).Err()
	s.Require().NoError(err)

	servant, err := s.cache.FindByNIN(ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal("Bello", servant.Surname)
	s.Equal(int32(1), s.source.loads.Load())

	// The corrupt entry was overwritten with the real record.
	servant, err = s.cache.FindByNIN(ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal("Bello", servant.Surname)
	s.Equal(int32(1), s.source.loads.Load())
}

type PostgresRegistrySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	registry *nominalroll.PostgresRegistry
}

func TestPostgresRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRegistrySuite))
}

func (s *PostgresRegistrySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.registry = nominalroll.NewPostgresRegistry(s.postgres.DB)
}

func (s *PostgresRegistrySuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "civil_servants"))

	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO civil_servants (nin, staff_verification_number, surname, first_name, middle_name,
		                            gender, rank, grade_level, cadre, mda, employee_passport)
		VALUES ('98765432109', 'SVN-1001', 'Adeyemi', 'Folake', '',
		        'female', 'Principal Officer', '12', 'Administrative', 'Ministry of Works', '')
	`)
	s.Require().NoError(err)
}

func (s *PostgresRegistrySuite) TestFindByBothKeys() {
	ctx := context.Background()

	servant, err := s.registry.FindByNIN(ctx, "98765432109")
	s.Require().NoError(err)
	s.Equal("Adeyemi", servant.Surname)
	s.Equal("12", servant.GradeLevel)

	servant, err = s.registry.FindByServiceNumber(ctx, "SVN-1001")
	s.Require().NoError(err)
	s.Equal("98765432109", servant.NIN)

	_, err = s.registry.FindByNIN(ctx, "11111111111")
	s.ErrorIs(err, nominalroll.ErrNotFound)
}

func (s *PostgresRegistrySuite) TestCrossMatch() {
	ctx := context.Background()

	servant, err := nominalroll.ValidateCrossMatch(ctx, s.registry, "98765432109", "SVN-1001")
	s.Require().NoError(err)
	s.Require().NotNil(servant)
	s.Equal("Folake", servant.FirstName)

	// NIN exists but the verification number belongs to someone else.
	servant, err = nominalroll.ValidateCrossMatch(ctx, s.registry, "98765432109", "SVN-9999")
	s.Require().NoError(err)
	s.Nil(servant)

	_, err = nominalroll.ValidateCrossMatch(ctx, s.registry, "11111111111", "SVN-1001")
	s.ErrorIs(err, nominalroll.ErrNotFound)
}
