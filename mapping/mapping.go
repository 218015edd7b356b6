// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package mapping derives deterministic SessionKeys from the raw
// fields of an inbound connector event, so a connector can route a
// reply to the correct paused session without a side lookup table.
//
// Both derivations are SHA-256 hex digests of a colon-joined, prefixed
// string. The prefix domain-separates the two families so a Telegram
// update and a webhook can never collide even with identical field
// values. Colons are literal and never escaped: callers must ensure
// their fields do not themselves contain colons in a way that would
// make two distinct inputs collide.
package mapping

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/greentic-ai/session-store/ids"
)

func hexSHA(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TelegramUpdateToSessionKey derives a SessionKey from a Telegram
// update's bot/chat/user triple.
func TelegramUpdateToSessionKey(botId, chatId, userId string) ids.SessionKey {
	return ids.SessionKey(hexSHA("tg:" + botId + ":" + chatId + ":" + userId))
}

// WebhookToSessionKey derives a SessionKey from a generic webhook's
// source/subject/id-hint triple.
func WebhookToSessionKey(source, subject, idHint string) ids.SessionKey {
	return ids.SessionKey(hexSHA("wh:" + source + ":" + subject + ":" + idHint))
}
