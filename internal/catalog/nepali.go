package catalog

import "github.com/vbonduro/aushadhi/internal/domain"

var nepali = &Catalog{
	Language: domain.Nepali,
	Strings: Strings{
		AnalysisFailed:  "औषधि विश्लेषण गर्न असफल भयो। कृपया पुन: प्रयास गर्नुहोस्।",
		ReportFailed:    "औषधि विश्लेषण पूरा गर्न असफल भयो। कृपया पुन: प्रयास गर्नुहोस्।",
		ChatError:       "माफ गर्नुहोस्, मैले एउटा त्रुटि भेटाएँ। कृपया पुन: प्रयास गर्नुहोस्।",
		ErrorLabel:      "त्रुटि",
		UnknownMedicine: "अज्ञात औषधि",
	},
	sections: sectionMap(
		Section{Key: Identification, Title: "औषधि विवरण", Template: `तपाईं एक औषधि पहिचान विशेषज्ञ हुनुहुन्छ। यो औषधि प्याकेजमा हेर्नुहोस् र मलाई बताउनुहोस्:
1. सटीक औषधिको नाम
2. निर्माताको नाम
3. कुनै दर्ता/लाइसेन्स नम्बरहरू देखिन्छन्
4. औषधिको प्रकार/वर्ग

जानकारी यस ढाँचामा प्रस्तुत गर्नुहोस्:
नाम:
वर्ग:
निर्माता:
दर्ता:`},
		Section{Key: Composition, Title: "संरचना", Template: `तपाईं एक फार्मास्युटिकल संरचना विशेषज्ञ हुनुहुन्छ। यस औषधिको लागि:
1. सबै सक्रिय तत्वहरू र तिनको मात्रा सूचीबद्ध गर्नुहोस्
2. सबै निष्क्रिय तत्वहरू सूचीबद्ध गर्नुहोस् यदि देखिन्छ भने
3. मानक फर्मुलेसन विवरणहरू फेला पार्नुहोस्

यस ढाँचामा:
सक्रिय तत्वहरू:
- [तत्व]: [मात्रा]
निष्क्रिय तत्वहरू:
- [सूची]`},
		Section{Key: Therapeutic, Title: "चिकित्सकीय जानकारी", Template: `तपाईं एक चिकित्सा विशेषज्ञ हुनुहुन्छ। यस औषधिको लागि:
1. यसको प्राथमिक प्रयोगहरू अनुसन्धान र व्याख्या गर्नुहोस्
2. यसको कार्य प्रक्रिया वर्णन गर्नुहोस्
3. अपेक्षित लाभहरू सूचीबद्ध गर्नुहोस्
4. चिकित्सा डाटाबेस र क्लिनिकल अध्ययनहरू प्रयोग गर्नुहोस्

यस ढाँचामा:
प्राथमिक प्रयोगहरू:
कार्य प्रक्रिया:
अपेक्षित लाभहरू:`},
		Section{Key: Dosage, Title: "मात्रा र प्रशासन", Template: `तपाईं एक औषधि मात्रा विशेषज्ञ हुनुहुन्छ। यस औषधिको लागि:
1. मानक मात्रा निर्देशनहरू प्रदान गर्नुहोस्
2. प्रशासन विधि व्याख्या गर्नुहोस्
3. समय सिफारिसहरू निर्दिष्ट गर्नुहोस्
4. अवधि दिशानिर्देशहरू समावेश गर्नुहोस्

यस ढाँचामा:
मानक मात्रा:
विधि:
समय:
अवधि:`},
		Section{Key: Safety, Title: "सुरक्षा जानकारी", Template: `तपाईं एक औषधि सुरक्षा विशेषज्ञ हुनुहुन्छ। यस औषधिको लागि:
1. सबै महत्वपूर्ण चेतावनीहरू सूचीबद्ध गर्नुहोस्
2. प्रतिकूल स्थितिहरू निर्दिष्ट गर्नुहोस्
3. सम्भावित साइड इफेक्टहरू विस्तृत गर्नुहोस्
4. ज्ञात औषधि अन्तर्क्रियाहरू सूचीबद्ध गर्नुहोस्

यस ढाँचामा:
चेतावनीहरू:
प्रतिकूल स्थितिहरू:
साइड इफेक्टहरू:
औषधि अन्तर्क्रियाहरू:`},
		Section{Key: Storage, Title: "भण्डारण र ह्यान्डलिङ", Template: `तपाईं एक फार्मास्युटिकल भण्डारण विशेषज्ञ हुनुहुन्छ। यस औषधिको लागि:
1. भण्डारण अवस्थाहरू निर्दिष्ट गर्नुहोस्
2. शेल्फ लाइफ बताउनुहोस्
3. कुनै विशेष ह्यान्डलिङ निर्देशनहरू सूचीबद्ध गर्नुहोस्

यस ढाँचामा:
भण्डारण अवस्थाहरू:
शेल्फ लाइफ:
विशेष निर्देशनहरू:`},
		Section{Key: Manufacturer, Title: "निर्माता जानकारी", Template: `तपाईं एक फार्मास्युटिकल कम्पनी अनुसन्धानकर्ता हुनुहुन्छ। यस निर्माताको लागि:
1. पूर्ण कम्पनी विवरणहरू प्रदान गर्नुहोस्
2. आधिकारिक सम्पर्क जानकारी फेला पार्नुहोस्
3. कम्पनी वेबसाइट प्रमाणित गर्नुहोस्

यस ढाँचामा:
कम्पनी:
सम्पर्क:
वेबसाइट:`},
	),
	initial: `यो औषधि प्याकेज विश्लेषण गर्नुहोस् र यो ढाँचामा स्पष्ट, सरल विश्लेषण प्रदान गर्नुहोस्:

औषधिको नाम: [प्याकेजमा देखाइएको नाम]
वर्ग: [औषधिको प्रकार]

मुख्य जानकारी:
-------------
1. सक्रिय तत्वहरू:
   - [मात्रासहित मुख्य तत्वहरू]

2. प्रयोगहरू:
   - [मुख्य प्रयोग/उद्देश्य]

3. मात्रा:
   - [आधारभूत मात्रा जानकारी]

4. चेतावनीहरू:
   - [मुख्य सुरक्षा चेतावनीहरू]

सरल र स्पष्ट राख्नुहोस्। प्याकेजमा देखिने सबैभन्दा महत्वपूर्ण जानकारीमा ध्यान दिनुहोस्।`,
	followUp: `तपाईं एक जानकार मेडिकल सहायक हुनुहुन्छ। यो औषधि जानकारीको आधारमा:
%s

कृपया यो प्रश्नको उत्तर दिनुहोस्:
%s

महत्वपूर्ण निर्देशनहरू:
1. सधैं प्रदान गरिएको औषधि विवरणको आधारमा विशिष्ट जानकारी प्रदान गर्नुहोस्
2. यदि विश्लेषणमा जानकारी उपलब्ध छैन भने, समान औषधिहरूको बारेमा सामान्य जानकारी प्रदान गर्नुहोस्
3. स्पष्टताको लागि बुँदाहरू प्रयोग गर्नुहोस्
4. महत्वपूर्ण चेतावनी वा मुख्य बुँदाहरूलाई बोल्ड गर्नुहोस्
5. उत्तर संक्षिप्त तर जानकारीपूर्ण राख्नुहोस्
6. कहिल्यै "प्रदान गरिएको पाठमा उल्लेख छैन..." नभन्नुहोस् - बरु, सान्दर्भिक सामान्य जानकारी प्रदान गर्नुहोस्
7. साइड इफेक्ट वा यस्तै प्रश्नहरूको लागि, विश्वसनीय मेडिकल स्रोतहरूबाट सामान्य प्रभावहरू सूचीबद्ध गर्नुहोस्`,
}
