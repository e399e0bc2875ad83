package messages

const (
	MsgAnonChallenge     = "Seems like you're anonymous, click the button below to prove your identity"
	MsgAnonChallengeBtn  = "Prove identity"
	MsgButtonExpired     = "This button has expired!"
	MsgNotAdmin          = "You lack the necessary permission needed for this command!"
	MsgMissingPermFmt    = "You lack the following permission for this command:\n%s!"
	MsgBotNotAdmin       = "I can't perform this action because I'm not admin!"
	MsgBotMissingPermFmt = "I can't perform this action due to missing the following permission: %s\nMake sure I am an admin with it!"

	MsgBlacklistEmptyFmt    = "No blacklisted words in <b>%s</b>!"
	MsgBlacklistAddUsage    = "Tell me which words you would like to add in blacklist."
	MsgBlacklistRemoveUsage = "Tell me which words you would like to remove from blacklist!"
	MsgBlacklistCapReached  = "The maximum number of blacklists (100) has been reached for this chat."
	MsgBlacklistAddedFmt    = "Added blacklist trigger: <code>%s</code> with <b>%s</b> action!"
	MsgBlacklistAddedAllFmt = "Added blacklist <code>%d</code> in chat: <b>%s</b>!"
	MsgBlacklistNotTrigger  = "This is not a blacklist trigger!"
	MsgBlacklistRemovedFmt  = "Removed <code>%s</code> from blacklist in <b>%s</b>!"
	MsgBlacklistRemovedN    = "Removed <code>%d</code> from blacklist. %d did not exist, so were not removed."
	MsgBlacklistNoneRemoved = "None of these triggers exist so they can't be removed."
	MsgBlacklistModeUsage   = "I only understand: off/del/warn/mute/kick/ban/tban/tmute!"
	MsgBlacklistModeTimeReq = "It looks like you tried to set a time value for blacklist but you didn't specify time; try again with a time value.\n\nExamples of time value: 4m = 4 minutes, 3h = 3 hours, 6d = 6 days, 5w = 5 weeks."
	MsgBlacklistModeBadTime = "Invalid time value!\nExamples of time value: 4m = 4 minutes, 3h = 3 hours, 6d = 6 days, 5w = 5 weeks."
	MsgBlacklistModeSetFmt  = "Changed blacklist mode: %s!"
	MsgBlacklistOwnerOnly   = "Only the chat owner can clear all blacklists at once."
	MsgBlacklistRmallAskFmt = "Are you sure you would like to clear ALL blacklists in %s? This action cannot be undone."
	MsgBlacklistRmallNone   = "No blacklists in this chat, nothing to clear!"
	MsgBlacklistClearedFmt  = "Cleared %d blacklist triggers in %s."
	MsgBlacklistCancelled   = "Clearing of all blacklists has been cancelled."
	MsgCbOwnerOnly          = "Only the owner of the chat can do this."
	MsgCbAdminOnly          = "You need to be admin to do this."

	MsgMutedFmt    = "Muted %s for using blacklisted word: %s!"
	MsgKickedFmt   = "Kicked %s for using blacklisted word: %s!"
	MsgBannedFmt   = "Banned %s for using blacklisted word: %s!"
	MsgTBannedFmt  = "Banned %s until '%s' for using blacklisted word: %s!"
	MsgTMutedFmt   = "Muted %s until '%s' for using blacklisted word: %s!"
	MsgWarnReason  = "Using blacklisted trigger: %s"
	MsgWarnFmt     = "Warned %s (%d/%d): %s"
	MsgWarnBanFmt  = "Banned %s for reaching %d warnings!"
	MsgApprovedFmt = "%s is now approved in this chat and will be ignored by automated moderation."
	MsgUnapproved  = "%s is no longer approved in this chat."
	MsgApproveNone = "Nobody is approved in this chat yet."
	MsgReplyTarget = "Reply to a user's message to target them."
)
