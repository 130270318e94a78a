package model

import (
	"fmt"
	"strings"
)

type EntityKind string

const (
	EntityChangeOrder        EntityKind = "change_order"
	EntityPaymentCertificate EntityKind = "payment_certificate"
	EntityActualPayment      EntityKind = "actual_payment"
)

func ParseEntityKind(raw string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "change_order", "change-order", "change-orders":
		return EntityChangeOrder, nil
	case "payment_certificate", "certificate", "certificates":
		return EntityPaymentCertificate, nil
	case "actual_payment", "payment", "payments":
		return EntityActualPayment, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
}

type Action string

const (
	ActionPropose  Action = "propose"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionMarkPaid Action = "mark_paid"
)

func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "propose":
		return ActionPropose, nil
	case "submit":
		return ActionSubmit, nil
	case "approve":
		return ActionApprove, nil
	case "reject":
		return ActionReject, nil
	case "mark_paid", "mark-paid":
		return ActionMarkPaid, nil
	default:
		return "", fmt.Errorf("unknown action %q", raw)
	}
}

type ApprovalStage string

const (
	ApprovalStageNone   ApprovalStage = ""
	ApprovalStageFirst  ApprovalStage = "first"
	ApprovalStageSecond ApprovalStage = "second"
)
