package supply

import "daily-trivia-service/internal/domain"

// FallbackBank returns the bundled, pre-vetted question pool used when
// provider content is insufficient. Entries are curated to pass the
// validator and to cover every difficulty quota on their own.
func FallbackBank() []domain.Question {
	return fallbackBank
}

func q(text, answer string, distractors []string, d domain.Difficulty) domain.Question {
	return domain.Question{
		Text:       text,
		Answer:     answer,
		Options:    append([]string{answer}, distractors...),
		Difficulty: d,
		Source:     "fallback",
	}
}

var fallbackBank = []domain.Question{
	// Easy
	q("Who is the main protagonist of One Piece?", "Monkey D. Luffy",
		[]string{"Roronoa Zoro", "Nami", "Sanji"}, domain.DifficultyEasy),
	q("In Naruto, what village is Naruto Uzumaki from?", "The Hidden Leaf Village",
		[]string{"The Hidden Sand Village", "The Hidden Mist Village", "The Hidden Cloud Village"}, domain.DifficultyEasy),
	q("What color is Goku's classic gi in Dragon Ball?", "Orange",
		[]string{"Blue", "Red", "Green"}, domain.DifficultyEasy),
	q("In Pokemon, which creature is Ash's first partner?", "Pikachu",
		[]string{"Charmander", "Squirtle", "Bulbasaur"}, domain.DifficultyEasy),
	q("What does Light Yagami find at the start of Death Note?", "A notebook",
		[]string{"A katana", "A ring", "A map"}, domain.DifficultyEasy),
	q("In Attack on Titan, what do the walls protect humanity from?", "Titans",
		[]string{"Pirates", "Dragons", "Demons"}, domain.DifficultyEasy),
	q("Which studio made the anime film Spirited Away?", "Studio Ghibli",
		[]string{"Toei Animation", "Madhouse", "Bones"}, domain.DifficultyEasy),
	q("In My Hero Academia, what are superpowers called?", "Quirks",
		[]string{"Gifts", "Auras", "Talents"}, domain.DifficultyEasy),

	// Medium
	q("Who wrote and illustrated the One Piece manga?", "Eiichiro Oda",
		[]string{"Masashi Kishimoto", "Akira Toriyama", "Tite Kubo"}, domain.DifficultyMedium),
	q("In Bleach, what is the name of Ichigo's zanpakuto?", "Zangetsu",
		[]string{"Senbonzakura", "Zabimaru", "Hyorinmaru"}, domain.DifficultyMedium),
	q("What is the name of the pirate crew led by Luffy?", "The Straw Hat Pirates",
		[]string{"The Heart Pirates", "The Red Hair Pirates", "The Blackbeard Pirates"}, domain.DifficultyMedium),
	q("In Fullmetal Alchemist, what do the Elric brothers try to resurrect?", "Their mother",
		[]string{"Their father", "Their teacher", "Their dog"}, domain.DifficultyMedium),
	q("Which Hunter x Hunter character uses a fishing rod as a weapon?", "Gon Freecss",
		[]string{"Killua Zoldyck", "Kurapika", "Leorio"}, domain.DifficultyMedium),
	q("In Demon Slayer, what breathing style does Tanjiro first learn?", "Water Breathing",
		[]string{"Flame Breathing", "Thunder Breathing", "Beast Breathing"}, domain.DifficultyMedium),
	q("What instrument gives Cowboy Bebop its jazz-soaked opening theme?", "Saxophone",
		[]string{"Violin", "Trumpet", "Piano"}, domain.DifficultyMedium),
	q("In Naruto, who is the leader of Team 7?", "Kakashi Hatake",
		[]string{"Iruka Umino", "Jiraiya", "Asuma Sarutobi"}, domain.DifficultyMedium),
	q("Which Jujutsu Kaisen character hosts the curse Sukuna?", "Yuji Itadori",
		[]string{"Megumi Fushiguro", "Satoru Gojo", "Nobara Kugisaki"}, domain.DifficultyMedium),
	q("In One Punch Man, what rank does Saitama start in the Hero Association?", "C-Class",
		[]string{"S-Class", "A-Class", "B-Class"}, domain.DifficultyMedium),
	q("What is the name of Sailor Moon's talking cat?", "Luna",
		[]string{"Artemis", "Diana", "Mochi"}, domain.DifficultyMedium),
	q("In Haikyuu, what position does Hinata play?", "Middle blocker",
		[]string{"Setter", "Libero", "Wing spiker"}, domain.DifficultyMedium),

	// Hard
	q("What is the name of the sea where the One Piece treasure awaits?", "The Grand Line",
		[]string{"The Calm Belt", "The Red Line", "The North Blue"}, domain.DifficultyHard),
	q("In Attack on Titan, who is revealed to be the Colossal Titan?", "Bertholdt Hoover",
		[]string{"Reiner Braun", "Annie Leonhart", "Zeke Yeager"}, domain.DifficultyHard),
	q("Which devil fruit did Marshall D. Teach steal in One Piece?", "The Dark-Dark Fruit",
		[]string{"The Tremor-Tremor Fruit", "The Flame-Flame Fruit", "The Ope-Ope Fruit"}, domain.DifficultyHard),
	q("In Code Geass, what is the name of Lelouch's alter ego?", "Zero",
		[]string{"Orange", "The Black King", "Mao"}, domain.DifficultyHard),
	q("Who composed the score for Neon Genesis Evangelion?", "Shiro Sagisu",
		[]string{"Yoko Kanno", "Joe Hisaishi", "Hiroyuki Sawano"}, domain.DifficultyHard),
	q("In Hunter x Hunter, what Nen category does Kurapika belong to?", "Conjurer",
		[]string{"Enhancer", "Transmuter", "Specialist"}, domain.DifficultyHard),
	q("What is the name of the organization Itachi Uchiha joins in Naruto?", "Akatsuki",
		[]string{"Anbu Root", "The Sound Four", "Kara"}, domain.DifficultyHard),
	q("In JoJo's Bizarre Adventure, what is Dio's stand called?", "The World",
		[]string{"Star Platinum", "Crazy Diamond", "Killer Queen"}, domain.DifficultyHard),
	q("Which mangaka created Berserk?", "Kentaro Miura",
		[]string{"Hirohiko Araki", "Naoki Urasawa", "Takehiko Inoue"}, domain.DifficultyHard),
	q("In Fullmetal Alchemist Brotherhood, what is Father's first homunculus?", "Pride",
		[]string{"Lust", "Envy", "Greed"}, domain.DifficultyHard),
	q("What is the true name of the Demon King in Chainsaw Man's first arc?", "Makima",
		[]string{"Power", "Reze", "Quanxi"}, domain.DifficultyHard),
	q("In Mob Psycho, what percentage marks Mob's emotional explosion?", "One hundred percent",
		[]string{"Eighty percent", "Ninety percent", "Fifty percent"}, domain.DifficultyHard),
}
