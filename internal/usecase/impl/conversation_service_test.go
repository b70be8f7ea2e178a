package impl

import (
	"context"
	"testing"
	"time"

	"clustercart/config"
	"clustercart/internal/domain/entity"
	domainerrors "clustercart/internal/domain/errors"
	"clustercart/internal/domain/repository"
	"clustercart/internal/domain/service"
	mockRepo "clustercart/internal/mocks/repository"
	mockSvc "clustercart/internal/mocks/service"
	mockUC "clustercart/internal/mocks/usecase"
	"clustercart/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type conversationServiceMocks struct {
	memberRepo       *mockRepo.MockMemberRepository
	productRepo      *mockRepo.MockProductRepository
	messageRepo      *mockRepo.MockMessageRepository
	messageCtxRepo   *mockRepo.MockMessageContextRepository
	settingRepo      *mockRepo.MockSettingRepository
	notificationRepo *mockRepo.MockNotificationRepository
	cartUC           *mockUC.MockCartUsecase
	clusterUC        *mockUC.MockClusterUsecase
	orderUC          *mockUC.MockOrderUsecase
	adminUC          *mockUC.MockAdminUsecase
	intent           *mockSvc.MockIntentService
	gateway          *mockSvc.MockPaymentGateway
	proofStore       *mockSvc.MockProofStore
	messenger        *mockSvc.MockMessenger
}

func newConversationServiceForTest(t *testing.T) (usecase.ConversationUsecase, *conversationServiceMocks) {
	m := &conversationServiceMocks{
		memberRepo:       mockRepo.NewMockMemberRepository(t),
		productRepo:      mockRepo.NewMockProductRepository(t),
		messageRepo:      mockRepo.NewMockMessageRepository(t),
		messageCtxRepo:   mockRepo.NewMockMessageContextRepository(t),
		settingRepo:      mockRepo.NewMockSettingRepository(t),
		notificationRepo: mockRepo.NewMockNotificationRepository(t),
		cartUC:           mockUC.NewMockCartUsecase(t),
		clusterUC:        mockUC.NewMockClusterUsecase(t),
		orderUC:          mockUC.NewMockOrderUsecase(t),
		adminUC:          mockUC.NewMockAdminUsecase(t),
		intent:           mockSvc.NewMockIntentService(t),
		gateway:          mockSvc.NewMockPaymentGateway(t),
		proofStore:       mockSvc.NewMockProofStore(t),
		messenger:        mockSvc.NewMockMessenger(t),
	}

	cfg := &config.Config{
		Twilio:   &config.TwilioConfig{FromNumber: "whatsapp:+14155238886"},
		Paystack: &config.PaystackConfig{EmailDomain: "pay.clustercart.ng"},
		Commerce: &config.CommerceConfig{
			DeliveryFeeKobo:     450000,
			DefaultClusterLimit: 5,
			Plans:               config.PlanPrices{Lifetime: 2500000, Monthly: 300000, Onetime: 100000},
		},
	}

	svc := NewConversationService(ConversationServiceParams{
		MemberRepo:       m.memberRepo,
		ProductRepo:      m.productRepo,
		MessageRepo:      m.messageRepo,
		MessageCtxRepo:   m.messageCtxRepo,
		SettingRepo:      m.settingRepo,
		NotificationRepo: m.notificationRepo,
		CartUsecase:      m.cartUC,
		ClusterUsecase:   m.clusterUC,
		OrderUsecase:     m.orderUC,
		AdminUsecase:     m.adminUC,
		IntentService:    m.intent,
		Gateway:          m.gateway,
		ProofStore:       m.proofStore,
		Messenger:        m.messenger,
		Config:           cfg,
		Logger:           testLogger(),
	})

	return svc, m
}

// expectTurn covers the bookkeeping every processed message performs.
func (m *conversationServiceMocks) expectTurn(member *entity.Member) {
	m.memberRepo.On("FindByPhone", mock.Anything, member.Phone).Return(member, nil)
	m.memberRepo.On("Update", mock.Anything, member).Return(nil)
	m.messageRepo.On("Log", mock.Anything, mock.AnythingOfType("*entity.MessageLog")).Return(nil)
}

func TestConversationService_Process_NewMemberStartsOnboarding(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	m.memberRepo.On("FindByPhone", ctx, "+2348012345678").
		Return(nil, repository.ErrMemberNotFound)
	m.memberRepo.On("Create", ctx, mock.MatchedBy(func(member *entity.Member) bool {
		return member.Phone == "+2348012345678" && member.State == entity.StateAwaitingName
	})).Return(nil)
	m.memberRepo.On("Update", ctx, mock.AnythingOfType("*entity.Member")).Return(nil)
	m.messageRepo.On("Log", ctx, mock.AnythingOfType("*entity.MessageLog")).Return(nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "whatsapp:+2348012345678", Body: "hi"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "What's your name?")
	assert.Equal(t, entity.StateAwaitingName, reply.StateAfter)
}

func TestConversationService_Process_CapturesName(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateAwaitingName}
	m.expectTurn(member)
	m.intent.On("ExtractName", mock.Anything, "my name is tunde").Return("Tunde", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "my name is tunde"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Nice to meet you, Tunde")
	assert.Equal(t, "Tunde", member.Name)
	assert.Equal(t, entity.StateAwaitingCity, member.State)
	assert.True(t, reply.AIUsed)
}

func TestConversationService_Process_NameFallsBackWhenModelFails(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateAwaitingName}
	m.expectTurn(member)
	m.intent.On("ExtractName", mock.Anything, "i'm chidi").Return("", errors.New("model down"))

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "i'm chidi"})
	require.NoError(t, err)
	assert.Equal(t, "Chidi", member.Name)
	assert.False(t, reply.AIUsed)
}

func TestConversationService_Process_LagosAsksForArea(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", Name: "Tunde", State: entity.StateAwaitingCity}
	m.expectTurn(member)
	m.intent.On("ExtractCity", mock.Anything, "I stay in Lagos").Return("Lagos", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "I stay in Lagos"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Mainland or the Island")
	assert.Equal(t, entity.StateAwaitingLagosArea, member.State)
	assert.Empty(t, member.City)
}

func TestConversationService_Process_LagosAreaLeadsToMembership(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateAwaitingLagosArea}
	m.expectTurn(member)
	m.intent.On("ExtractLagosArea", mock.Anything, "island side").Return("Island", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "island side"})
	require.NoError(t, err)
	assert.Equal(t, "Lagos Island", member.City)
	assert.Equal(t, entity.StateAwaitingMembership, member.State)
	assert.Contains(t, reply.Text, "membership plans")
}

func TestConversationService_Process_MembershipChoiceInitializesPayment(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Lagos Island", State: entity.StateAwaitingMembership}
	m.expectTurn(member)
	m.intent.On("ExtractMembership", mock.Anything, "lifetime please").
		Return(entity.MembershipLifetime, nil)
	m.gateway.On("InitializeTransaction", ctx, "2348012345678@pay.clustercart.ng", int64(2500000), map[string]any{
		"type":  "membership",
		"phone": "+2348012345678",
		"plan":  "lifetime",
	}).Return(&service.Transaction{AuthorizationURL: "https://checkout.test/m1", Reference: "ref-m1"}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "lifetime please"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "https://checkout.test/m1")
	assert.Equal(t, entity.MembershipLifetime, member.MembershipType)
	assert.Equal(t, entity.StateIdle, member.State)
}

func TestConversationService_Process_MembershipFallsBackToTransfer(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Abuja", State: entity.StateAwaitingMembership}
	m.expectTurn(member)
	m.intent.On("ExtractMembership", mock.Anything, "monthly").
		Return(entity.MembershipMonthly, nil)
	m.gateway.On("InitializeTransaction", ctx, mock.AnythingOfType("string"), int64(300000), mock.Anything).
		Return(nil, errors.New("gateway down"))

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "monthly"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "bank transfer")
	assert.Equal(t, entity.StateAwaitingPaymentProof, member.State)
}

func TestConversationService_Process_PaymentProofImageFlagsReview(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateAwaitingPaymentProof}
	m.expectTurn(member)
	m.proofStore.On("Store", ctx, "+2348012345678", "https://media.test/proof.jpg").
		Return("https://cdn.test/proofs/1.jpg", nil)
	m.notificationRepo.On("Create", ctx, mock.AnythingOfType("*entity.Notification")).Return(nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{
		Phone:    "+2348012345678",
		MediaURL: "https://media.test/proof.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPendingReview, member.PaymentStatus)
	assert.Equal(t, entity.StateIdle, member.State)
	assert.Equal(t, entity.IntentPaymentConfirmation, reply.Intent)
}

func TestConversationService_Process_JoinTokenSkipsClassification(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateIdle, PaymentStatus: entity.PaymentPaid}
	m.expectTurn(member)
	m.clusterUC.On("JoinCluster", ctx, member, "abc123").
		Return(&entity.Cluster{
			ID:        "abc123",
			Name:      "Ajah Foodies",
			MaxPeople: 5,
			Members:   []string{"+2348000000001", "+2348012345678"},
		}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "JOIN_CLUSTER_abc123"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, `Welcome to cluster "Ajah Foodies"`)
	assert.Equal(t, entity.IntentClusterJoin, reply.Intent)
}

func TestConversationService_Process_JoinTokenUnpaidDefersJoin(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Abuja", State: entity.StateIdle}
	m.expectTurn(member)
	m.clusterUC.On("JoinCluster", ctx, member, "abc123").
		Return(nil, domainerrors.ErrNotEligible)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "JOIN_CLUSTER_abc123"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", member.PendingClusterID)
	assert.Equal(t, entity.StateAwaitingMembership, member.State)
	assert.Contains(t, reply.Text, "membership")
}

func TestConversationService_Process_AdminSlashCommandBypassesStateMachine(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348000000001", State: entity.StateIdle}
	m.expectTurn(member)
	m.adminUC.On("IsAdmin", "+2348000000001").Return(true)
	m.adminUC.On("HandleCommand", ctx, "+2348000000001", "/orders").
		Return("Latest orders:\nLAG-001 | ...", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348000000001", Body: "/orders"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Latest orders:")
}

func TestConversationService_Process_CatalogSearchOffersCandidates(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Abuja", State: entity.StateIdle}
	products := []entity.Product{
		{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000, ImageURL: "https://img.test/rice5.jpg"},
		{SKU: "RICE10", Name: "Rice 10kg", PriceKobo: 280000},
	}

	m.expectTurn(member)
	m.adminUC.On("IsAdmin", "+2348012345678").Return(false).Maybe()
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").Return(nil, nil)
	m.intent.On("ClassifyIntent", mock.Anything, "I want rice", mock.Anything).
		Return(entity.IntentCatalogSearch, nil)
	m.intent.On("ExtractProductQuery", mock.Anything, "I want rice").Return("rice", nil)
	m.productRepo.On("Search", ctx, "rice", "Abuja", 5).Return(products, nil)
	m.messenger.On("Send", ctx, "+2348012345678", mock.AnythingOfType("string"), "https://img.test/rice5.jpg").
		Return("SM1", nil)
	m.messenger.On("Send", ctx, "+2348012345678", mock.AnythingOfType("string"), "").
		Return("SM2", nil)
	m.messageCtxRepo.On("Save", ctx, mock.AnythingOfType("*entity.MessageContext")).Return(nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "I want rice"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "1. Rice 5kg")
	assert.Contains(t, reply.Text, "2. Rice 10kg")
	assert.Equal(t, entity.StateAwaitingCartAction, member.State)
	require.NotNil(t, member.PendingSelection)
	assert.Len(t, member.PendingSelection.Candidates, 2)
}

func TestConversationService_Process_NumberReplySelectsCandidate(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	candidates := []entity.Product{
		{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000},
		{SKU: "RICE10", Name: "Rice 10kg", PriceKobo: 280000},
	}
	member := &entity.Member{
		Phone: "+2348012345678",
		State: entity.StateAwaitingCartAction,
		PendingSelection: &entity.PendingSelection{
			Candidates: candidates,
			Query:      "rice",
			CreatedAt:  time.Now(),
		},
	}

	m.expectTurn(member)
	// Force the deterministic fallback so numbered replies resolve offline.
	m.intent.On("InterpretCartAction", mock.Anything, "2", candidates).
		Return(nil, errors.New("model down"))
	m.cartUC.On("AddItem", ctx, member, mock.MatchedBy(func(p *entity.Product) bool {
		return p.SKU == "RICE10"
	}), 1).Return(&usecase.ActiveCart{
		Items: []entity.LineItem{{SKU: "RICE10", Name: "Rice 10kg", Qty: 1, UnitPriceKobo: 280000}},
	}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "2"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Added 1 x Rice 10kg")
	assert.Equal(t, entity.StateIdle, member.State)
	assert.Nil(t, member.PendingSelection)
}

func TestConversationService_Process_QuotedReplyPinsCandidate(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	candidates := []entity.Product{
		{SKU: "RICE5", Name: "Rice 5kg", PriceKobo: 150000},
		{SKU: "RICE10", Name: "Rice 10kg", PriceKobo: 280000},
	}
	member := &entity.Member{
		Phone: "+2348012345678",
		State: entity.StateAwaitingCartAction,
		PendingSelection: &entity.PendingSelection{
			Candidates: candidates,
			Query:      "rice",
			CreatedAt:  time.Now(),
		},
	}

	m.expectTurn(member)
	m.messageCtxRepo.On("FindBySID", ctx, "SM1").
		Return(&entity.MessageContext{MessageSID: "SM1", SKU: "RICE5"}, nil)
	m.cartUC.On("AddItem", ctx, member, mock.MatchedBy(func(p *entity.Product) bool {
		return p.SKU == "RICE5"
	}), 1).Return(&usecase.ActiveCart{
		Items: []entity.LineItem{{SKU: "RICE5", Name: "Rice 5kg", Qty: 1, UnitPriceKobo: 150000}},
	}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{
		Phone:      "+2348012345678",
		Body:       "this one",
		ReplyToSID: "SM1",
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Added 1 x Rice 5kg")
}

func TestConversationService_Process_StaleSelectionFallsBackToIdle(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone: "+2348012345678",
		State: entity.StateAwaitingCartAction,
		PendingSelection: &entity.PendingSelection{
			Candidates: []entity.Product{{SKU: "RICE5", Name: "Rice 5kg"}},
			CreatedAt:  time.Now().Add(-time.Hour),
		},
	}

	m.expectTurn(member)
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").Return(nil, nil)
	m.intent.On("ClassifyIntent", mock.Anything, "menu", mock.Anything).
		Return(entity.IntentMenuHelp, nil)
	m.settingRepo.On("Get", ctx, PriceSheetSettingKey).Return("", errors.New("not set"))

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "menu"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Here's what I can do")
	assert.Nil(t, member.PendingSelection)
	assert.Equal(t, entity.StateIdle, member.State)
}

func TestConversationService_Process_CheckoutInterruptsForAddress(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Abuja", State: entity.StateIdle}

	m.expectTurn(member)
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").Return(nil, nil)
	m.intent.On("ClassifyIntent", mock.Anything, "checkout", mock.Anything).
		Return(entity.IntentCartCheckout, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "checkout"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "delivery address")
	assert.Equal(t, entity.StateAwaitingAddress, member.State)
}

func TestConversationService_Process_AddressResumesCheckout(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", City: "Abuja", State: entity.StateAwaitingAddress}

	m.expectTurn(member)
	m.orderUC.On("CreateOrderFromCart", ctx, member).
		Return(&usecase.CheckoutResult{
			Order:      &entity.Order{Slug: "ABJ-001", TotalKobo: 750000},
			PaymentURL: "https://checkout.test/o1",
		}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "3 Gwarinpa Estate, Abuja"})
	require.NoError(t, err)
	assert.Equal(t, "3 Gwarinpa Estate, Abuja", member.Address)
	assert.Equal(t, entity.StateIdle, member.State)
	assert.Contains(t, reply.Text, "ABJ-001")
	assert.Contains(t, reply.Text, "https://checkout.test/o1")
}

func TestConversationService_Process_EmptyCheckoutOffersTextOrder(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone:   "+2348012345678",
		City:    "Abuja",
		Address: "12 Wuse Close",
		State:   entity.StateIdle,
	}

	m.expectTurn(member)
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").Return(nil, nil)
	m.intent.On("ClassifyIntent", mock.Anything, "checkout", mock.Anything).
		Return(entity.IntentCartCheckout, nil)
	m.orderUC.On("CreateOrderFromCart", ctx, member).
		Return(nil, domainerrors.ErrCartEmpty)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "checkout"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Send your order as a list")
	assert.Equal(t, entity.StateAwaitingOrder, member.State)
}

func TestConversationService_Process_TextOrderCaptured(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone: "+2348012345678",
		City:  "Abuja",
		State: entity.StateAwaitingOrder,
	}

	m.expectTurn(member)
	m.orderUC.On("CreateOrderFromText", ctx, member, "Rice 5kg x2, Beans 1kg").
		Return(&entity.Order{Slug: "ABJ-007", Status: entity.OrderWaitingPayment}, nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "Rice 5kg x2, Beans 1kg"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "ABJ-007")
	assert.Equal(t, entity.StateIdle, member.State)
}

func TestConversationService_Process_TextOrderRepromptsWhenUnreadable(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone: "+2348012345678",
		City:  "Abuja",
		State: entity.StateAwaitingOrder,
	}

	m.expectTurn(member)
	m.orderUC.On("CreateOrderFromText", ctx, member, "???").
		Return(nil, domainerrors.ErrOrderUnparsed)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "???"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "one item per comma")
	assert.Equal(t, entity.StateAwaitingOrder, member.State)
}

func TestConversationService_Process_ClusterNameSwitchesActiveCart(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateIdle}
	clusters := []entity.Cluster{{ID: "cl1", Name: "Ajah Foodies"}}

	m.expectTurn(member)
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").Return(clusters, nil)
	m.clusterUC.On("SwitchActiveCluster", ctx, member, "Ajah Foodies").
		Return(&clusters[0], nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "ajah foodies"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, `shopping with cluster "Ajah Foodies"`)
	assert.Equal(t, entity.IntentClusterView, reply.Intent)
}

func TestConversationService_Process_ClassifierSeesMemberContext(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone:            "+2348012345678",
		City:             "Abuja",
		State:            entity.StateIdle,
		PaymentStatus:    entity.PaymentPaid,
		CurrentClusterID: "cl1",
	}

	senderCtx := mock.MatchedBy(func(mc service.MemberContext) bool {
		return mc.InCluster && mc.IsPaid && !mc.PendingReview && mc.City == "Abuja"
	})

	m.expectTurn(member)
	m.clusterUC.On("GetMemberClusters", ctx, "+2348012345678").
		Return([]entity.Cluster{{ID: "cl1", Name: "Ajah Foodies"}}, nil)
	m.intent.On("ClassifyIntent", mock.Anything, "how far with delivery", senderCtx).
		Return(entity.IntentOther, nil)
	m.intent.On("GenerateReply", mock.Anything, "how far with delivery", senderCtx).
		Return("Your cluster order is being packed.", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "how far with delivery"})
	require.NoError(t, err)
	assert.Equal(t, "Your cluster order is being packed.", reply.Text)
	assert.True(t, reply.AIUsed)
}

func TestConversationService_Process_ClusterCreationFlow(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{
		Phone:              "+2348012345678",
		State:              entity.StateAwaitingClusterLimit,
		PendingClusterName: "Ajah Foodies",
		PaymentStatus:      entity.PaymentPaid,
	}

	m.expectTurn(member)
	m.clusterUC.On("CreateCluster", ctx, member, "Ajah Foodies", 8).
		Return(&usecase.ClusterInvite{
			Cluster:  &entity.Cluster{ID: "cl1", Name: "Ajah Foodies", MaxPeople: 8},
			DeepLink: "https://wa.me/14155238886?text=JOIN_CLUSTER_cl1",
			QRCode:   []byte("png"),
		}, nil)
	m.proofStore.On("StoreImage", ctx, "qr/cl1.png", []byte("png")).
		Return("https://cdn.test/qr/cl1.png", nil)

	reply, err := svc.Process(ctx, &usecase.IncomingMessage{Phone: "+2348012345678", Body: "8 people"})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "JOIN_CLUSTER_cl1")
	assert.Equal(t, "https://cdn.test/qr/cl1.png", reply.MediaURL)
	assert.Equal(t, entity.StateIdle, member.State)
	assert.Empty(t, member.PendingClusterName)
}

func TestConversationService_Process_ReferralFragmentPersists(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	member := &entity.Member{Phone: "+2348012345678", State: entity.StateAwaitingName}

	m.expectTurn(member)
	m.intent.On("ExtractName", mock.Anything, mock.AnythingOfType("string")).
		Return("Tunde", nil)

	_, err := svc.Process(ctx, &usecase.IncomingMessage{
		Phone: "+2348012345678",
		Body:  "Hi! I was referred by +2347000000001, my name is Tunde",
	})
	require.NoError(t, err)
	// The raw fragment may carry trailing words; normalization recovers the phone.
	assert.Equal(t, "+2347000000001", NormalizePhone(member.ReferredBy))
	assert.True(t, LooksLikePhone(NormalizePhone(member.ReferredBy)))
}

func TestConversationService_RecordDeliveryStatus(t *testing.T) {
	svc, m := newConversationServiceForTest(t)

	ctx := context.Background()
	m.messageRepo.On("LogStatus", ctx, mock.MatchedBy(func(s *entity.MessageStatus) bool {
		return s.MessageSID == "SM1" && s.Status == "delivered" && !s.Timestamp.IsZero()
	})).Return(nil)

	err := svc.RecordDeliveryStatus(ctx, &entity.MessageStatus{
		MessageSID: "SM1",
		Status:     "delivered",
		To:         "whatsapp:+2348012345678",
	})
	require.NoError(t, err)
}

func TestFallbackCartAction(t *testing.T) {
	candidates := []entity.Product{
		{SKU: "RICE5", Name: "Rice 5kg"},
		{SKU: "RICE10", Name: "Rice 10kg"},
	}

	tests := []struct {
		name string
		body string
		want service.CartAction
	}{
		{name: "number selects", body: "2", want: service.CartAction{Kind: service.CartActionAdd, SKU: "RICE10", Qty: 1}},
		{name: "out of range number ignored", body: "9", want: service.CartAction{Kind: service.CartActionNone}},
		{name: "checkout keyword", body: "checkout please", want: service.CartAction{Kind: service.CartActionCheckout}},
		{name: "remove keyword names candidate", body: "remove rice 5kg", want: service.CartAction{Kind: service.CartActionRemove, SKU: "RICE5"}},
		{name: "bare yes affirms", body: "yes", want: service.CartAction{Kind: service.CartActionAffirm, Qty: 1}},
		{name: "name with qty", body: "rice 10kg x 3", want: service.CartAction{Kind: service.CartActionAdd, SKU: "RICE10", Qty: 10}},
		{name: "unrelated text", body: "how is the weather", want: service.CartAction{Kind: service.CartActionNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fallbackCartAction(tt.body, candidates)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFallbackCity(t *testing.T) {
	assert.Equal(t, "Lagos", fallbackCity("I'm in lagos o"))
	assert.Equal(t, "Abuja", fallbackCity("Abuja, Gwarinpa"))
	assert.Equal(t, "Port Harcourt", fallbackCity("port harcourt"))
	assert.Equal(t, "Port Harcourt", fallbackCity("PH city"))
	assert.Equal(t, "", fallbackCity("Kano"))
}

func TestFallbackMembership(t *testing.T) {
	assert.Equal(t, entity.MembershipLifetime, fallbackMembership("the lifetime one"))
	assert.Equal(t, entity.MembershipMonthly, fallbackMembership("monthly"))
	assert.Equal(t, entity.MembershipOnetime, fallbackMembership("just one time"))
	assert.Equal(t, entity.MembershipType(""), fallbackMembership("what are the options"))
}
