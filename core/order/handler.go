package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
	"github.com/irsalhamdi/members-portal/validate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Membership is the single product members buy.
type Membership struct {
	Name       string
	Price      int
	SuccessURL string
	CancelURL  string
}

func record(ctx context.Context, ledger Ledger, userID, provider, providerID string, amount int) error {
	now := time.Now().UTC()
	p := Purchase{
		ID:         validate.GenerateID(),
		UserID:     userID,
		Provider:   provider,
		ProviderID: providerID,
		Amount:     amount,
		Status:     Pending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := ledger.Create(ctx, p); err != nil {
		return fmt.Errorf("creating the purchase bound to payment[%s] for user[%s]: %w", providerID, userID, err)
	}
	return nil
}

func fulfill(ctx context.Context, log logrus.FieldLogger, ledger Ledger, providerID string) error {
	p, err := ledger.MarkPaid(ctx, providerID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return weberr.NotFound(err)
		}
		return err
	}

	log.WithFields(logrus.Fields{
		"purchase": p.ID,
		"provider": p.Provider,
		"user":     p.UserID,
	}).Info("membership paid")
	return nil
}

func HandlePaypalCheckout(ledger Ledger, pp *paypal.Client, m Membership) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		price := strconv.Itoa(m.Price)
		units := []paypal.PurchaseUnitRequest{{
			Items: []paypal.Item{{
				Quantity: "1",
				Name:     m.Name,

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    price,
				},
			}},

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    price,

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    price,
				}},
			},
		}}

		app := &paypal.ApplicationContext{
			ReturnURL: m.SuccessURL,
			CancelURL: m.CancelURL,
		}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, app)
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("creating paypal order: %w", err))
		}

		if err := record(ctx, ledger, clm.UserID, ProviderPaypal, ord.ID, m.Price); err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(log logrus.FieldLogger, ledger Ledger, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("capturing paypal order[%s]: %w", providerID, err))
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, log, ledger, providerID); err != nil {
			return fmt.Errorf("the membership was paid but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(ledger Ledger, strp *stripecl.API, m Membership) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		li := []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				TaxBehavior: stripe.String("inclusive"),
				UnitAmount:  stripe.Int64(int64(m.Price) * 100),

				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(m.Name),
				},
			},
		}}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:        stripe.String(m.SuccessURL),
			CancelURL:         stripe.String(m.CancelURL),
			Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:         li,
			ClientReferenceID: stripe.String(clm.UserID),
		}
		params.Context = ctx

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("creating stripe session: %w", err))
		}

		if err := record(ctx, ledger, clm.UserID, ProviderStripe, s.ID, m.Price); err != nil {
			return err
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(log logrus.FieldLogger, ledger Ledger, webhookSecret string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, webhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, log, ledger, session.ID); err != nil {
			return fmt.Errorf("the membership was paid but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleList(ledger Ledger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ps, err := ledger.ListByUser(ctx, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}
