package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/discount"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ruleTypeDescriptions = map[model.RuleType]string{
	model.RuleTypeBOGO:            "Buy one, get one free on a product or category",
	model.RuleTypeTwoForOne:       "Two units for the price of one on a product or category",
	model.RuleTypePercentCategory: "Percentage off every item in a category",
	model.RuleTypePercentProduct:  "Percentage off a single product",
	model.RuleTypeFixedAmount:     "Fixed amount off the order or the scoped items",
	model.RuleTypeBuyXGetY:        "Buy a number of units, get more free",
}

type ruleService struct {
	ruleRepo     repository.RuleRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        Invalidator
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewRuleService creates the rule administration service. cache may be nil;
// when set it is invalidated after every successful change.
func NewRuleService(
	ruleRepo repository.RuleRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cache Invalidator,
	logger zerolog.Logger,
) RuleService {
	return &ruleService{
		ruleRepo:     ruleRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		validate:     newValidator(),
		logger:       logger.With().Str("service", "rule").Logger(),
	}
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *ruleService) Create(ctx context.Context, req *model.RuleRequest) (*model.DiscountRule, error) {
	rule, err := s.build(ctx, uuid.NewString(), req)
	if err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		s.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to create rule")
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	s.invalidate()

	s.logger.Info().
		Str("rule_id", rule.ID).
		Str("type", string(rule.Type)).
		Msg("discount rule created")

	return rule, nil
}

func (s *ruleService) Update(ctx context.Context, id string, req *model.RuleRequest) (*model.DiscountRule, error) {
	if id == "" {
		return nil, model.ErrRuleNotFound
	}

	rule, err := s.build(ctx, id, req)
	if err != nil {
		return nil, err
	}

	ok, err := s.ruleRepo.Update(ctx, rule)
	if err != nil {
		s.logger.Error().Err(err).Str("rule_id", id).Msg("failed to update rule")
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	if !ok {
		return nil, model.ErrRuleNotFound
	}
	s.invalidate()

	s.logger.Info().Str("rule_id", id).Msg("discount rule updated")
	return rule, nil
}

func (s *ruleService) Delete(ctx context.Context, id string) error {
	ok, err := s.ruleRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("rule_id", id).Msg("failed to delete rule")
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if !ok {
		return model.ErrRuleNotFound
	}
	s.invalidate()

	s.logger.Info().Str("rule_id", id).Msg("discount rule deleted")
	return nil
}

func (s *ruleService) GetByID(ctx context.Context, id string) (*model.DiscountRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("rule_id", id).Msg("failed to get rule")
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	if rule == nil {
		return nil, model.ErrRuleNotFound
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context, filter model.RuleFilter) ([]model.DiscountRule, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, model.InvalidRule(fmt.Sprintf("unknown rule type %q", filter.Type))
	}

	rules, err := s.ruleRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list rules")
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

func (s *ruleService) Suggestions() map[model.RuleType]string {
	out := make(map[model.RuleType]string, len(ruleTypeDescriptions))
	for _, t := range model.RuleTypes() {
		out[t] = ruleTypeDescriptions[t]
	}
	return out
}

// build validates req and turns it into a storable rule whose scope
// references exist and whose parameters compile.
func (s *ruleService) build(ctx context.Context, id string, req *model.RuleRequest) (*model.DiscountRule, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "rule body is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err, model.ErrCodeInvalidRule)
	}

	rule := &model.DiscountRule{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Type:         req.Type,
		Percentage:   req.Percentage,
		FixedAmount:  req.FixedAmount,
		BuyQuantity:  req.BuyQuantity,
		GetQuantity:  req.GetQuantity,
		MinCartValue: req.MinCartValue,
		MinQuantity:  req.MinQuantity,
		MaxDiscount:  req.MaxDiscount,
		MaxUses:      req.MaxUses,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Priority:     req.Priority,
		Active:       req.Active == nil || *req.Active,
	}

	if req.ProductID != "" {
		product, err := s.productRepo.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rule product: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		rule.Product = &model.RuleRef{ID: product.ID, Name: product.Name}
	}
	if req.CategoryID != "" {
		category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve rule category: %w", err)
		}
		if category == nil {
			return nil, model.ErrCategoryNotFound
		}
		rule.Category = &model.RuleRef{ID: category.ID, Name: category.Name}
	}

	if _, err := discount.Compile(*rule); err != nil {
		s.logger.Debug().Err(err).Str("rule_id", id).Msg("rule rejected")
		return nil, model.InvalidRule(err.Error())
	}

	return rule, nil
}

func (s *ruleService) invalidate() {
	invalidateRules(s.cache)
}

// invalidateRules drops cached rules after a write that changes what they
// resolve to. cache may be nil.
func invalidateRules(cache Invalidator) {
	if cache != nil {
		cache.Invalidate()
	}
}

// validationError turns validator output into a domain error. Missing
// fields are reported as such; every other failure carries code.
func validationError(err error, code string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewDomainError(code, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("%s is required", fe.Field()))
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return model.NewDomainError(code, strings.Join(msgs, "; "))
}
