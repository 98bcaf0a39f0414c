// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

// Protocol event types. Events are published only after the call that caused
// them has committed.
const (
	InitializedEventType       = EventType("protocol.initialized")
	ParameterChangedEventType  = EventType("protocol.parameter_changed")
	UserActionEventType        = EventType("protocol.user_action")
	ProposalCreatedEventType   = EventType("proposal.created")
	ProposalApprovedEventType  = EventType("proposal.approved")
	ProposalExecutedEventType  = EventType("proposal.executed")
	ProposalCanceledEventType  = EventType("proposal.canceled")
	VoteCastEventType          = EventType("governance.vote_cast")
	DelegationChangedEventType = EventType("governance.delegation_changed")
	UpgradeEventType           = EventType("upgrade.changed")
	RecoveryEventType          = EventType("recovery.changed")
)

// Proposal sources
const (
	SourceGovernance = "governance"
	SourceMultisig   = "multisig"
)

type InitializedEvent struct {
	Admin   string
	Version string
}

// ParameterChangedEvent reports a protocol or control plane setting that was
// changed by an executed action
type ParameterChangedEvent struct {
	Name  string
	Value string
}

type UserActionEvent struct {
	User  string
	Count uint64
}

// ProposalEvent covers the lifecycle of both governance and multisig
// proposals. Kind is the action kind carried by the proposal.
type ProposalEvent struct {
	Source string
	ID     uint64
	Actor  string
	Kind   string
}

type VoteCastEvent struct {
	ProposalID uint64
	Voter      string
	Caster     string
	Weight     uint64
	Support    bool
}

// DelegationChangedEvent has an empty Delegatee when the delegation was removed
type DelegationChangedEvent struct {
	Delegator string
	Delegatee string
}

// Upgrade and recovery steps
const (
	StepSetGuardians = "set_guardians"
	StepPropose      = "propose"
	StepApprove      = "approve"
	StepExecute      = "execute"
	StepRollback     = "rollback"
	StepCancel       = "cancel"
)

type UpgradeEvent struct {
	Step            string
	Actor           string
	Version         string
	PreviousVersion string
}

type RecoveryEvent struct {
	Step     string
	Account  string
	Actor    string
	NewOwner string
}
