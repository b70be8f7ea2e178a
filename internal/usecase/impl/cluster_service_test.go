package impl

import (
	"context"
	"testing"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	mockRepo "clustercart/internal/mocks/repository"
	mockSvc "clustercart/internal/mocks/service"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clusterServiceMocks struct {
	clusterRepo *mockRepo.MockClusterRepository
	memberRepo  *mockRepo.MockMemberRepository
	qrcode      *mockSvc.MockQRCodeService
	messenger   *mockSvc.MockMessenger
}

func newClusterServiceForTest(t *testing.T) (usecase.ClusterUsecase, *clusterServiceMocks) {
	m := &clusterServiceMocks{
		clusterRepo: mockRepo.NewMockClusterRepository(t),
		memberRepo:  mockRepo.NewMockMemberRepository(t),
		qrcode:      mockSvc.NewMockQRCodeService(t),
		messenger:   mockSvc.NewMockMessenger(t),
	}

	cfg := &config.Config{
		Commerce: &config.CommerceConfig{DefaultClusterLimit: 5},
		Twilio:   &config.TwilioConfig{FromNumber: "whatsapp:+14155238886"},
	}

	svc := NewClusterService(ClusterServiceParams{
		ClusterRepo:   m.clusterRepo,
		MemberRepo:    m.memberRepo,
		QRCodeService: m.qrcode,
		Messenger:     m.messenger,
		Config:        cfg,
		Logger:        testLogger(),
	})

	return svc, m
}

func TestClusterService_CreateCluster(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	owner := &entity.Member{Phone: "+2348000000001", Name: "Bola", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("Create", ctx, mock.MatchedBy(func(c *entity.Cluster) bool {
		return c.Name == "Ajah Foodies" &&
			c.OwnerPhone == owner.Phone &&
			c.MaxPeople == 4 &&
			c.IsActive &&
			len(c.Members) == 1 && c.Members[0] == owner.Phone
	})).Return("cl1", nil)
	m.memberRepo.On("Update", ctx, owner).Return(nil)
	m.qrcode.On("GenerateInviteQR", "https://wa.me/14155238886?text=JOIN_CLUSTER_cl1").
		Return([]byte("png-bytes"), nil)

	invite, err := svc.CreateCluster(ctx, owner, " Ajah Foodies ", 4)
	require.NoError(t, err)
	assert.Equal(t, "cl1", invite.Cluster.ID)
	assert.Equal(t, "https://wa.me/14155238886?text=JOIN_CLUSTER_cl1", invite.DeepLink)
	assert.Equal(t, []byte("png-bytes"), invite.QRCode)
	assert.Equal(t, "cl1", owner.CurrentClusterID)
}

func TestClusterService_CreateCluster_DefaultsLimit(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	owner := &entity.Member{Phone: "+2348000000001", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("Create", ctx, mock.MatchedBy(func(c *entity.Cluster) bool {
		return c.MaxPeople == 5
	})).Return("cl1", nil)
	m.memberRepo.On("Update", ctx, owner).Return(nil)
	m.qrcode.On("GenerateInviteQR", mock.AnythingOfType("string")).
		Return([]byte("png"), nil)

	invite, err := svc.CreateCluster(ctx, owner, "Ajah Foodies", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, invite.Cluster.MaxPeople)
}

func TestClusterService_CreateCluster_QRFailureKeepsLink(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	owner := &entity.Member{Phone: "+2348000000001", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("Create", ctx, mock.AnythingOfType("*entity.Cluster")).Return("cl1", nil)
	m.memberRepo.On("Update", ctx, owner).Return(nil)
	m.qrcode.On("GenerateInviteQR", mock.AnythingOfType("string")).
		Return(nil, errors.New("render failed"))

	invite, err := svc.CreateCluster(ctx, owner, "Ajah Foodies", 4)
	require.NoError(t, err)
	assert.Nil(t, invite.QRCode)
	assert.NotEmpty(t, invite.DeepLink)
}

func TestClusterService_JoinCluster_RequiresPaidMembership(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002", PaymentStatus: entity.PaymentUnpaid}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{ID: "cl1", MaxPeople: 5, Members: []string{"+2348000000001"}}, nil)

	cluster, err := svc.JoinCluster(ctx, member, "cl1")
	assert.ErrorIs(t, err, domainerrors.ErrNotEligible)
	assert.Nil(t, cluster)
}

func TestClusterService_JoinCluster_FullClusterRejected(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000003", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{
			ID:        "cl1",
			MaxPeople: 2,
			Members:   []string{"+2348000000001", "+2348000000002"},
		}, nil)

	cluster, err := svc.JoinCluster(ctx, member, "cl1")
	assert.ErrorIs(t, err, domainerrors.ErrClusterFull)
	assert.Nil(t, cluster)
}

func TestClusterService_JoinCluster_LostLastSpotRejected(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000003", PaymentStatus: entity.PaymentPaid}

	// One spot left at read time, but another join lands first and the
	// conditional append reports the cluster full.
	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{
			ID:        "cl1",
			MaxPeople: 2,
			Members:   []string{"+2348000000001"},
		}, nil)
	m.clusterRepo.On("AddMember", ctx, "cl1", "+2348000000003").
		Return(repository.ErrClusterFull)

	cluster, err := svc.JoinCluster(ctx, member, "cl1")
	assert.ErrorIs(t, err, domainerrors.ErrClusterFull)
	assert.Nil(t, cluster)
	assert.Empty(t, member.CurrentClusterID)
}

func TestClusterService_JoinCluster_ExistingMemberJustSwitches(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{
			ID:        "cl1",
			MaxPeople: 5,
			Members:   []string{"+2348000000001", "+2348000000002"},
		}, nil)
	m.memberRepo.On("Update", ctx, member).Return(nil)

	cluster, err := svc.JoinCluster(ctx, member, "cl1")
	require.NoError(t, err)
	assert.Len(t, cluster.Members, 2)
	assert.Equal(t, "cl1", member.CurrentClusterID)
}

func TestClusterService_JoinCluster_AddsMemberAndNotifiesOwner(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002", Name: "Chidi", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{
			ID:         "cl1",
			Name:       "Ajah Foodies",
			OwnerPhone: "+2348000000001",
			MaxPeople:  5,
			Members:    []string{"+2348000000001"},
		}, nil)
	m.clusterRepo.On("AddMember", ctx, "cl1", "+2348000000002").Return(nil)
	m.memberRepo.On("Update", ctx, member).Return(nil)
	m.messenger.On("Send", ctx, "+2348000000001", mock.AnythingOfType("string"), "").
		Return("SM1", nil)

	cluster, err := svc.JoinCluster(ctx, member, "cl1")
	require.NoError(t, err)
	assert.Contains(t, cluster.Members, "+2348000000002")
	assert.Equal(t, "cl1", member.CurrentClusterID)
}

func TestClusterService_JoinCluster_UnknownCluster(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002", PaymentStatus: entity.PaymentPaid}

	m.clusterRepo.On("FindByID", ctx, "nope").
		Return(nil, repository.ErrClusterNotFound)

	cluster, err := svc.JoinCluster(ctx, member, "nope")
	assert.ErrorIs(t, err, domainerrors.ErrClusterNotFound)
	assert.Nil(t, cluster)
}

func TestClusterService_RenameCluster_OwnerOnly(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002"}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{ID: "cl1", OwnerPhone: "+2348000000001"}, nil)

	err := svc.RenameCluster(ctx, member, "cl1", "New Name")
	assert.ErrorIs(t, err, domainerrors.ErrNotOwner)
}

func TestClusterService_RenameCluster_TrimsName(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000001"}

	m.clusterRepo.On("FindByID", ctx, "cl1").
		Return(&entity.Cluster{ID: "cl1", OwnerPhone: "+2348000000001", Name: "Old"}, nil)
	m.clusterRepo.On("Update", ctx, mock.MatchedBy(func(c *entity.Cluster) bool {
		return c.Name == "Lekki Bulk Buys"
	})).Return(nil)

	require.NoError(t, svc.RenameCluster(ctx, member, "cl1", "  Lekki Bulk Buys  "))
}

func TestClusterService_SwitchActiveCluster_MatchesCaseInsensitively(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002"}

	m.clusterRepo.On("FindByMemberPhone", ctx, "+2348000000002").
		Return([]entity.Cluster{
			{ID: "cl1", Name: "Ajah Foodies"},
			{ID: "cl2", Name: "Lekki Bulk Buys"},
		}, nil)
	m.memberRepo.On("Update", ctx, member).Return(nil)

	cluster, err := svc.SwitchActiveCluster(ctx, member, "  lekki bulk buys ")
	require.NoError(t, err)
	assert.Equal(t, "cl2", cluster.ID)
	assert.Equal(t, "cl2", member.CurrentClusterID)
}

func TestClusterService_SwitchActiveCluster_UnknownName(t *testing.T) {
	svc, m := newClusterServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000002"}

	m.clusterRepo.On("FindByMemberPhone", ctx, "+2348000000002").
		Return([]entity.Cluster{{ID: "cl1", Name: "Ajah Foodies"}}, nil)

	cluster, err := svc.SwitchActiveCluster(ctx, member, "Surulere Squad")
	assert.ErrorIs(t, err, domainerrors.ErrClusterNotFound)
	assert.Nil(t, cluster)
}
