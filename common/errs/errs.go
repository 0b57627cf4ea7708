/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errs defines the error kinds of spec.md §7 as wrapped sentinels,
// so callers can classify with errors.Is while keeping a readable message.
package errs

import (
	perrors "github.com/pkg/errors"
)

// Kind is one of the named failure categories from spec.md §7.
type Kind string

const (
	NotAnExtensionPoint   Kind = "not_an_extension_point"
	NoSuchExtension       Kind = "no_such_extension"
	DuplicateExtension    Kind = "duplicate_extension"
	AdaptiveURLMissing    Kind = "adaptive_url_missing"
	AdaptiveNameUnresolved Kind = "adaptive_name_unresolved"
	NoAdaptiveMethod      Kind = "no_adaptive_method"
	NonAdaptiveMethod     Kind = "non_adaptive_method"
	NoSuchMethod          Kind = "no_such_method"
	NoSuchProperty        Kind = "no_such_property"
	ExportMissing         Kind = "export_missing"
	RegistrationFailed    Kind = "registration_failed"
	SubscriptionFailed    Kind = "subscription_failed"
	RpcFailure            Kind = "rpc_failure"
)

// RpcFailureSubKind further classifies RpcFailure per spec.md §7.
type RpcFailureSubKind string

const (
	Timeout      RpcFailureSubKind = "timeout"
	Network      RpcFailureSubKind = "network"
	ServerSide   RpcFailureSubKind = "server_side"
	Forbidden    RpcFailureSubKind = "forbidden"
	Serialization RpcFailureSubKind = "serialization"
)

// Error is the concrete error type carrying a Kind for errors.Is/As
// classification and an optional RPC sub-kind.
type Error struct {
	Kind    Kind
	Sub     RpcFailureSubKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, &Error{Kind: X}) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Sub != "" && t.Sub != e.Sub {
		return false
	}
	return true
}

// New builds a Kind-tagged error, wrapping cause with a stack via pkg/errors
// when cause is non-nil, matching the teacher's perrors.Errorf/WithStack idiom.
func New(kind Kind, message string, cause error) *Error {
	if cause != nil {
		cause = perrors.WithStack(cause)
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// NewRPC builds an RpcFailure with a sub-kind.
func NewRPC(sub RpcFailureSubKind, message string, cause error) *Error {
	e := New(RpcFailure, message, cause)
	e.Sub = sub
	return e
}

// IsKind reports whether err (or something it wraps) is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == k
}

// IsRetryable reports whether an RpcFailure sub-kind should be retried by
// the failover cluster policy, per spec.md §7's propagation policy.
func IsRetryable(err error) bool {
	var e *Error
	for cur := err; cur != nil; {
		if ae, ok := cur.(*Error); ok {
			e = ae
			break
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	if e == nil || e.Kind != RpcFailure {
		return false
	}
	return e.Sub == Timeout || e.Sub == Network
}
