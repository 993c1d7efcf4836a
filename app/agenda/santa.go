package agenda

// Santa returns the production call script: a guided conversation with Santa
// that collects who the children are, surprises them with things Santa
// "already knows", walks through the nice list and the magic flight, and winds
// down with their wishes before a free-talk step bounded by the call budget.
func Santa() *Agenda {
	return New([]Step{
		{
			ID:       "intro",
			Name:     "Introduction",
			Video:    "intro",
			NoListen: true,
		},
		{
			ID:   "meet_children",
			Name: "Meet the Children",
			Prompt: `Greet the child or children warmly and find out who you are talking to.
IMPORTANT: from the child's answer, extract and return in JSON:
- childGender: "boy", "girl", or "mixed" when several of different genders
- childCount: how many children are present (1, 2, 3, ...)
- childNames: array of names
- childAges: array of ages (when you learn them)

Ask their names and how old they are. Be surprised and delighted to talk to them!`,
			MultiTurn: true,
			Voice:     VoiceNormal,
		},
		{
			ID:    "initial_info",
			Name:  "Initial Information",
			Audio: "informatii.mp3",
			Video: "northpole",
			Voice: VoiceNormal,
		},
		{
			ID:   "secrets",
			Name: "Secrets and Surprises",
			Prompt: `Use the secret information you have about the child/children to surprise them.
Mention hobbies, friends, pets, achievements - everything you know!
Show them you are magic and know all about them.
Ask questions about what they like to do.`,
			Voice: VoiceAmazed,
		},
		{
			ID:   "north_pole",
			Name: "The North Pole",
			Prompt: `Tell them about the North Pole and your elves working on the presents.
Say you are very busy because Christmas is coming.
Be enthusiastic about the gifts the elves are preparing!`,
			Video: "elfs_working",
			Voice: VoiceNormal,
		},
		{
			ID:   "list_suspense",
			Name: "Nice List Suspense",
			Prompt: `Ask whether they want to find out if they are on the nice list.
Build suspense and anticipation: "Could you be on the nice list?"
Do NOT reveal the list yet - only talk about it and build excitement!`,
			Voice: VoiceNormal,
		},
		{
			ID:   "list_check",
			Name: "Nice List Check",
			Prompt: `Tell them you are checking your magic list.
For each child, say you are looking for them on the list.
After you "find" each child, confirm they are on the nice list.
Be very happy that they have been good!`,
			Video: "kids_list",
			Voice: VoiceAmazed,
		},
		{
			ID:   "magic_flight_intro",
			Name: "Magic Flight Introduction",
			Prompt: `Tell the child that because they have been so good, you want to show them something special.
Ask: "Would you like to see what it's like to fly with me and my reindeer?"
Wait for their answer - do NOT show the video yet!`,
			Voice: VoiceNormal,
		},
		{
			ID:   "magic_flight",
			Name: "Magic Flight",
			Prompt: `They accepted! Tell them to hold on tight, you are doing magic!
Say something like "Hold on tight! Abracadabra!" and start the magic flight!`,
			Video: "flight",
			Voice: VoiceAmazed,
		},
		{
			ID:   "after_flight",
			Name: "After the Flight",
			Prompt: `Ask how they liked the magic flight!
Be curious and excited to hear what they felt!`,
			Voice: VoiceNormal,
		},
		{
			ID:   "wishes",
			Name: "Christmas Wishes",
			Prompt: `Ask what they wish for this Christmas.
Listen carefully and react to every wish.
Be enthusiastic and promise you will try to bring them!
If there are several wishes, hear them all out.`,
			Voice: VoiceNormal,
		},
		{
			ID:   "free_talk",
			Name: "Free Conversation",
			Prompt: `Keep the conversation going naturally with the child/children.
Answer their questions, talk about Christmas, the reindeer, the elves.
Be friendly and full of warmth. You can ask how they are doing, what they did at school, and so on.
No rush - enjoy the conversation!`,
			Voice:   VoiceNormal,
			Looping: true,
		},
		{
			ID:   "closing",
			Name: "Closing",
			Prompt: `Tell them you unfortunately have to go because there is a lot of work at the toy workshop.
Wish them happy holidays and tell them to keep being good!
Tell them you will be back on Christmas night with presents!
Close with warmth and a big Ho Ho Ho!`,
			NoListen:    true,
			AutoEndCall: true,
			Voice:       VoiceNormal,
		},
	}, "closing")
}
