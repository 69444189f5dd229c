package resellers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/internal/commissions"
	"github.com/riezafm/levelpos-backend/pkg/db"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
)

// maxTreeDepth bounds how many profiles may sit on any root-to-leaf
// path. The commission walk refuses longer chains at settlement time,
// so the write path must never produce one.
const maxTreeDepth = 10

// CreateProfileInput carries the fields needed to attach a user to the
// reseller tree.
type CreateProfileInput struct {
	UserID           uuid.UUID
	Level            int
	ParentResellerID *uuid.UUID
	CommissionRate   decimal.Decimal
}

// Service manages reseller profiles and the shape of the reseller tree.
type Service struct {
	db   *db.Client
	logg *logger.Logger
}

func NewService(client *db.Client, logg *logger.Logger) *Service {
	return &Service{db: client, logg: logg}
}

// CreateProfile attaches a user to the reseller tree. The user must
// exist with the reseller role, the rate must sit in [0, 1], and the
// parent chain must be acyclic and shallow enough for the commission
// walk.
func (s *Service) CreateProfile(ctx context.Context, input CreateProfileInput) (*models.ResellerProfile, error) {
	if err := validateRate(input.CommissionRate); err != nil {
		return nil, err
	}

	var created *models.ResellerProfile
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.Role != enums.UserRoleReseller {
			return pkgerrors.New(pkgerrors.CodeValidation, "user does not hold the reseller role").
				WithDetails(map[string]any{"role": user.Role})
		}

		if input.ParentResellerID != nil {
			length, err := chainLength(ctx, tx, *input.ParentResellerID, uuid.Nil)
			if err != nil {
				return err
			}
			if length+1 > maxTreeDepth {
				return pkgerrors.New(pkgerrors.CodeValidation, "profile would exceed the maximum chain depth").
					WithDetails(map[string]any{"parent_id": *input.ParentResellerID})
			}
		}

		profile := &models.ResellerProfile{
			ID:               uuid.New(),
			UserID:           input.UserID,
			Level:            input.Level,
			ParentResellerID: input.ParentResellerID,
			ReferralCode:     newReferralCode(),
			CommissionRate:   input.CommissionRate,
			TotalSales:       decimal.Zero,
			TotalCommission:  decimal.Zero,
			IsActive:         true,
		}
		if err := tx.Create(profile).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "user already has a reseller profile")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist profile")
		}
		created = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithField(ctx, "reseller_profile_id", created.ID.String())
	s.logg.Info(ctx, "reseller profile created")
	return created, nil
}

// Reparent moves a profile under a new parent, or to the root when the
// parent is nil. Rejects moves that would create a cycle or push any
// descendant past the depth bound.
func (s *Service) Reparent(ctx context.Context, profileID uuid.UUID, newParentID *uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var profile models.ResellerProfile
		if err := tx.First(&profile, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reseller profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}

		if newParentID != nil {
			if *newParentID == profileID {
				return pkgerrors.New(pkgerrors.CodeValidation, "profile cannot be its own parent")
			}
			length, err := chainLength(ctx, tx, *newParentID, profileID)
			if err != nil {
				return err
			}
			depth, err := subtreeDepth(ctx, tx, profileID)
			if err != nil {
				return err
			}
			if length+depth > maxTreeDepth {
				return pkgerrors.New(pkgerrors.CodeValidation, "move would push a descendant past the maximum chain depth").
					WithDetails(map[string]any{"parent_chain": length, "subtree_depth": depth})
			}
		}

		err := tx.Model(&models.ResellerProfile{}).
			Where("id = ?", profileID).
			UpdateColumn("parent_reseller_id", newParentID).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reparent profile")
		}
		return nil
	})
}

// SetCommissionRate updates a profile's own rate. Future settlements
// pick it up; past commission rows keep the rate they were cut at.
func (s *Service) SetCommissionRate(ctx context.Context, profileID uuid.UUID, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.ResellerProfile{}).
			Where("id = ?", profileID).
			UpdateColumn("commission_rate", rate)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update rate")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reseller profile not found")
		}
		return nil
	})
}

// AuditTotals replays the commission ledger for the profile's user and
// rewrites the cached running totals.
func (s *Service) AuditTotals(ctx context.Context, profileID uuid.UUID) (commissions.Totals, error) {
	var totals commissions.Totals
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var profile models.ResellerProfile
		if err := tx.First(&profile, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reseller profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}
		replayed, err := commissions.RecomputeTotals(ctx, tx, profile.UserID)
		if err != nil {
			return err
		}
		totals = replayed
		return nil
	})
	return totals, err
}

// chainLength walks up from the given profile and returns how many
// profiles sit on the path to the root, the starting profile included.
// Fails on cycles, missing parents, and on passing through forbidden
// (the profile being moved).
func chainLength(ctx context.Context, tx *gorm.DB, startID, forbidden uuid.UUID) (int, error) {
	visited := map[uuid.UUID]struct{}{}
	current := startID
	for {
		if current == forbidden {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "move would create a cycle in the reseller tree")
		}
		if _, seen := visited[current]; seen {
			return 0, pkgerrors.New(pkgerrors.CodeCommissionChain, "reseller tree contains a cycle").
				WithDetails(map[string]any{"profile_id": current})
		}
		visited[current] = struct{}{}
		if len(visited) > maxTreeDepth {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "parent chain exceeds maximum tree depth").
				WithDetails(map[string]any{"parent_id": startID})
		}

		var node models.ResellerProfile
		if err := tx.WithContext(ctx).First(&node, "id = ?", current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, pkgerrors.New(pkgerrors.CodeValidation, "parent reseller does not exist").
					WithDetails(map[string]any{"parent_id": current})
			}
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent")
		}
		if node.ParentResellerID == nil {
			return len(visited), nil
		}
		current = *node.ParentResellerID
	}
}

// subtreeDepth returns how many profile levels the subtree rooted at
// rootID spans, the root counted as one. Walks the tree breadth-first
// one generation per query.
func subtreeDepth(ctx context.Context, tx *gorm.DB, rootID uuid.UUID) (int, error) {
	depth := 0
	frontier := []uuid.UUID{rootID}
	for len(frontier) > 0 {
		depth++
		if depth > maxTreeDepth {
			return 0, pkgerrors.New(pkgerrors.CodeCommissionChain, "reseller subtree deeper than the walk bound").
				WithDetails(map[string]any{"profile_id": rootID})
		}
		var children []models.ResellerProfile
		err := tx.WithContext(ctx).
			Select("id").
			Where("parent_reseller_id IN ?", frontier).
			Find(&children).Error
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load child profiles")
		}
		frontier = frontier[:0]
		for _, child := range children {
			frontier = append(frontier, child.ID)
		}
	}
	return depth, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
	}
	return nil
}

func newReferralCode() string {
	return "REF-" + strings.ToUpper(uuid.NewString()[:8])
}
